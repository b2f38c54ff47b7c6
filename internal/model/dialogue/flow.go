package dialogue

import (
	"strings"

	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
)

// FieldSpec describes one field a flow collects. Prompt may reference earlier
// fields as {field_name}.
type FieldSpec struct {
	Name      string
	Kind      slot.Kind
	Label     string
	Prompt    string
	Reprompts map[slot.Reason]string
}

// Reprompt is the message shown when a candidate for the field is rejected.
func (f FieldSpec) Reprompt(reason slot.Reason) string {
	if msg, ok := f.Reprompts[reason]; ok {
		return msg
	}
	if msg, ok := f.Reprompts[slot.ReasonMissing]; ok {
		return msg
	}
	return "Please provide your " + strings.ToLower(f.Label) + "."
}

// InfoTopic answers a front-desk question matched by keyword.
type InfoTopic struct {
	Keywords []string
	Answer   string
}

// Prompts holds the fixed texts of a flow.
type Prompts struct {
	Greeting      string
	Start         string
	SummaryIntro  string
	SummaryOutro  string
	Noted         string
	Complete      string
	AfterComplete string
	Restart       string
	Cancelled     string
	Closing       string
	InfoFallback  string
}

// Flow is static configuration of one conversation type. It is never mutated
// once built.
type Flow struct {
	Name   string
	Fields []FieldSpec
	Router *intent.Router
	Prompts

	// RestartOnCancel sends a cancelled confirmation back to GREETING instead of CANCELLED.
	RestartOnCancel  bool
	// FarewellAnywhere lets a farewell close the conversation from any state.
	FarewellAnywhere bool
	Info             []InfoTopic
}

// Field looks up a field spec by name.
func (f *Flow) Field(name string) (FieldSpec, bool) {
	for _, spec := range f.Fields {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// FieldOfKind returns the first field of the given kind.
func (f *Flow) FieldOfKind(kind slot.Kind) (FieldSpec, bool) {
	for _, spec := range f.Fields {
		if spec.Kind == kind {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// NextEmpty returns the first field in flow order that has no value yet.
func (f *Flow) NextEmpty(fields map[string]string) (FieldSpec, bool) {
	for _, spec := range f.Fields {
		if fields[spec.Name] == "" {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Render substitutes {field_name} placeholders with collected values.
func (f *Flow) Render(text string, fields map[string]string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	pairs := make([]string, 0, len(f.Fields)*2)
	for _, spec := range f.Fields {
		pairs = append(pairs, "{"+spec.Name+"}", fields[spec.Name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Summary lists every field in flow order for confirmation.
func (f *Flow) Summary(fields map[string]string) string {
	var b strings.Builder
	b.WriteString(f.Render(f.SummaryIntro, fields))
	for _, spec := range f.Fields {
		b.WriteString(spec.Label)
		b.WriteString(": ")
		b.WriteString(fields[spec.Name])
		b.WriteString("\n")
	}
	b.WriteString(f.SummaryOutro)
	return b.String()
}

// Answer picks the info answer for an utterance, or the fallback text.
func (f *Flow) Answer(utterance string) string {
	normalized := strings.ToLower(utterance)
	for _, topic := range f.Info {
		for _, kw := range topic.Keywords {
			if strings.Contains(normalized, kw) {
				return topic.Answer
			}
		}
	}
	return f.InfoFallback
}
