package intent

import (
	"strings"
	"unicode"
)

// Intent 表示一句话在流程分支点上的粗粒度意图。
type Intent string

const (
	StartBooking Intent = "START_BOOKING"
	AskInfo      Intent = "ASK_INFO"
	Confirm      Intent = "CONFIRM"
	Cancel       Intent = "CANCEL"
	Farewell     Intent = "FAREWELL"
	Unknown      Intent = "UNKNOWN"
)

// Priority is the fixed order rules are tested in. The first matching rule wins,
// regardless of how many keywords of a later rule also match.
var Priority = []Intent{Confirm, Cancel, StartBooking, AskInfo, Farewell}

// Rule binds an intent to its keyword set. A keyword may be a phrase.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// Router classifies utterances with ordered keyword matching.
type Router struct {
	rules []compiledRule
}

type compiledRule struct {
	intent  Intent
	phrases [][]string
}

// NewRouter builds a Router. Rules are reordered to follow Priority; intents that
// are not listed in Priority are tested last, in the order given.
func NewRouter(rules ...Rule) *Router {
	byIntent := make(map[Intent][]string, len(rules))
	order := make([]Intent, 0, len(rules))
	for _, rule := range rules {
		if _, seen := byIntent[rule.Intent]; !seen {
			order = append(order, rule.Intent)
		}
		byIntent[rule.Intent] = append(byIntent[rule.Intent], rule.Keywords...)
	}

	ranked := make([]Intent, 0, len(order))
	for _, it := range Priority {
		if _, ok := byIntent[it]; ok {
			ranked = append(ranked, it)
		}
	}
	for _, it := range order {
		if rank(it) < 0 {
			ranked = append(ranked, it)
		}
	}

	r := &Router{rules: make([]compiledRule, 0, len(ranked))}
	for _, it := range ranked {
		cr := compiledRule{intent: it}
		for _, kw := range byIntent[it] {
			if words := tokenize(kw); len(words) > 0 {
				cr.phrases = append(cr.phrases, words)
			}
		}
		r.rules = append(r.rules, cr)
	}
	return r
}

// Classify returns the first intent whose keyword set matches the utterance.
func (r *Router) Classify(utterance string) Intent {
	return r.ClassifyAmong(utterance)
}

// ClassifyAmong is Classify restricted to the allowed intents. Priority order is
// unchanged. With no allowed intents given every rule is considered.
func (r *Router) ClassifyAmong(utterance string, allowed ...Intent) Intent {
	if r == nil {
		return Unknown
	}
	words := tokenize(utterance)
	if len(words) == 0 {
		return Unknown
	}
	for _, rule := range r.rules {
		if len(allowed) > 0 && !contains(allowed, rule.intent) {
			continue
		}
		for _, phrase := range rule.phrases {
			if hasPhrase(words, phrase) {
				return rule.intent
			}
		}
	}
	return Unknown
}

func rank(it Intent) int {
	for i, p := range Priority {
		if p == it {
			return i
		}
	}
	return -1
}

func contains(list []Intent, it Intent) bool {
	for _, v := range list {
		if v == it {
			return true
		}
	}
	return false
}

func hasPhrase(words, phrase []string) bool {
	if len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j := range phrase {
			if words[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.ReplaceAll(normalized, "’", "'")
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
