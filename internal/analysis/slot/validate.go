package slot

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minNameLength = 2
	minTextLength = 5
	phoneLength   = 10

	// CanonicalDate is the layout every accepted date is stored in.
	CanonicalDate = "2006-01-02"
	// CanonicalTime is the 24-hour layout every accepted time is stored in.
	CanonicalTime = "15:04"
)

var (
	dateLayouts = []string{"2006-1-2", "2-1-2006", "2/1/2006", "2006/1/2"}
	timeLayouts = []string{"15:04", "15:04:05", "3:04 pm", "3:04pm"}
)

// Validator normalizes candidates. Now is the clock past dates are measured
// against; a nil Now means time.Now. Loc, when set, is the timezone today's
// date is read in.
type Validator struct {
	Now func() time.Time
	Loc *time.Location
}

// NewValidator returns a Validator reading the wall clock in loc.
func NewValidator(loc *time.Location) Validator {
	if loc == nil {
		loc = time.Local
	}
	return Validator{Loc: loc}
}

// Validate accepts or rejects a candidate for a field of the given kind.
func (v Validator) Validate(kind Kind, candidate string) Result {
	switch kind {
	case KindPhone:
		return validatePhone(candidate)
	case KindDate:
		return v.validateDate(candidate)
	case KindTime:
		return validateTime(candidate)
	case KindName:
		return validateLength(candidate, minNameLength)
	case KindText:
		return validateLength(candidate, minTextLength)
	default:
		return Rejected(ReasonBadFormat)
	}
}

func validatePhone(candidate string) Result {
	cleaned := phoneSeparators.Replace(strings.TrimSpace(candidate))
	if cleaned == "" {
		return Rejected(ReasonMissing)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return Rejected(ReasonBadFormat)
		}
	}
	if len(cleaned) != phoneLength {
		return Rejected(ReasonWrongLength)
	}
	return Accepted(cleaned)
}

func (v Validator) validateDate(candidate string) Result {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return Rejected(ReasonMissing)
	}

	var (
		parsed time.Time
		found  bool
	)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			parsed, found = t, true
			break
		}
	}
	if !found {
		return Rejected(ReasonBadFormat)
	}

	if parsed.Before(v.today()) {
		return Rejected(ReasonPastDate)
	}
	return Accepted(parsed.Format(CanonicalDate))
}

// today is the current calendar date as midnight UTC, comparable with dates
// produced by time.Parse.
func (v Validator) today() time.Time {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	if v.Loc != nil {
		now = now.In(v.Loc)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateTime(candidate string) Result {
	trimmed := strings.ToLower(strings.TrimSpace(candidate))
	if trimmed == "" {
		return Rejected(ReasonMissing)
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return Accepted(t.Format(CanonicalTime))
		}
	}
	return Rejected(ReasonBadFormat)
}

func validateLength(candidate string, min int) Result {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return Rejected(ReasonMissing)
	}
	if utf8.RuneCountInString(trimmed) < min {
		return Rejected(ReasonTooShort)
	}
	return Accepted(trimmed)
}
