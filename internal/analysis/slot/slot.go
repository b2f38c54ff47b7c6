// Package slot turns raw utterances into canonical field values.
//
// Extraction and validation are pure: extraction finds a candidate with pattern
// rules, validation accepts or rejects it and produces the canonical form.
package slot

// Kind selects the extraction and validation rules of a field.
type Kind string

const (
	KindName  Kind = "name"
	KindPhone Kind = "phone"
	KindText  Kind = "text"
	KindDate  Kind = "date"
	KindTime  Kind = "time"
)

// Reason explains why a candidate was not accepted.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonMissing     Reason = "MISSING"
	ReasonBadFormat   Reason = "BAD_FORMAT"
	ReasonPastDate    Reason = "PAST_DATE"
	ReasonTooShort    Reason = "TOO_SHORT"
	ReasonWrongLength Reason = "WRONG_LENGTH"
	ReasonUnavailable Reason = "UNAVAILABLE"
)

// Result is the outcome of validating one candidate.
type Result struct {
	OK     bool
	Value  string
	Reason Reason
}

// Accepted builds a successful Result.
func Accepted(value string) Result {
	return Result{OK: true, Value: value}
}

// Rejected builds a failed Result.
func Rejected(reason Reason) Result {
	return Result{Reason: reason}
}
