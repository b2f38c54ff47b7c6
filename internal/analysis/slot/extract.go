package slot

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
	digitRun        = regexp.MustCompile(`\d+`)

	// day-first is tried before year-first.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{4}`),
		regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
	}

	twelveHourClock = regexp.MustCompile(`(?i)\b(\d{1,2}):?(\d{2})\s*([ap])\.?m\b`)
	twentyFourClock = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	bareHourClock   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])\.?m\b`)

	statedName = regexp.MustCompile(`(?i)\b(?:my name is|call me)\s+([^\s,.!?;:]+)`)
	selfIntro  = regexp.MustCompile(`(?i)\b(?:i'm|i am)\s+([^\s,.!?;:]+)`)

	// "I'm here", "I am not sure" 之类不是自我介绍。
	notNames = map[string]bool{
		"a": true, "an": true, "the": true, "not": true, "here": true, "just": true,
		"looking": true, "calling": true, "available": true, "trying": true, "sure": true,
		"sorry": true, "fine": true, "ok": true, "okay": true, "free": true, "busy": true,
		"new": true, "back": true, "also": true, "still": true, "going": true, "having": true,
		"feeling": true, "interested": true, "afraid": true, "unable": true, "able": true,
		"in": true, "at": true, "on": true, "from": true, "with": true, "good": true,
		"well": true, "sick": true, "glad": true, "hoping": true, "wondering": true,
		"late": true, "early": true,
	}
)

// Extract pulls a candidate value for a field of the given kind out of an
// utterance. Rules are tried in order and the first match wins. Date, time, name
// and text fall back to the whole trimmed utterance so the validator makes the
// final decision.
func Extract(kind Kind, utterance string) (string, bool) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return "", false
	}

	if candidate, ok := Volunteered(kind, trimmed); ok {
		return candidate, true
	}

	switch kind {
	case KindDate, KindTime, KindName, KindText:
		return trimmed, true
	default:
		return "", false
	}
}

// Volunteered is the strict form of Extract used for fields the user was not
// asked about. Only pattern rules apply, there is no whole-utterance fallback,
// and free text is never volunteered.
func Volunteered(kind Kind, utterance string) (string, bool) {
	switch kind {
	case KindPhone:
		return extractPhone(utterance)
	case KindDate:
		return extractDate(utterance)
	case KindTime:
		return extractTime(utterance)
	case KindName:
		return extractEmbeddedName(utterance)
	default:
		return "", false
	}
}

func extractPhone(utterance string) (string, bool) {
	compact := phoneSeparators.Replace(utterance)
	for _, run := range digitRun.FindAllString(compact, -1) {
		if len(run) == 10 {
			return run, true
		}
	}
	return "", false
}

func extractDate(utterance string) (string, bool) {
	for _, pattern := range datePatterns {
		if match := pattern.FindString(utterance); match != "" {
			return match, true
		}
	}
	return "", false
}

func extractTime(utterance string) (string, bool) {
	if m := twelveHourClock.FindStringSubmatch(utterance); m != nil {
		return fmt.Sprintf("%s:%s %sm", m[1], m[2], strings.ToLower(m[3])), true
	}
	if match := twentyFourClock.FindString(utterance); match != "" {
		return match, true
	}
	if m := bareHourClock.FindStringSubmatch(utterance); m != nil {
		return fmt.Sprintf("%s:00 %sm", m[1], strings.ToLower(m[2])), true
	}
	return "", false
}

// StatedName matches only the explicit preambles "my name is" and "call me".
func StatedName(utterance string) (string, bool) {
	if m := statedName.FindStringSubmatch(utterance); m != nil {
		return m[1], true
	}
	return "", false
}

func extractEmbeddedName(utterance string) (string, bool) {
	normalized := strings.ReplaceAll(utterance, "’", "'")
	if name, ok := StatedName(normalized); ok {
		return name, true
	}
	for _, m := range selfIntro.FindAllStringSubmatch(normalized, -1) {
		if !notNames[strings.ToLower(m[1])] {
			return m[1], true
		}
	}
	return "", false
}
