package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
)

// Machine applies one utterance to one session. It holds no session state
// itself and is safe for concurrent use.
type Machine struct {
	validator slot.Validator
	slots     dialogue.SlotChecker
}

// NewMachine builds a Machine. slots may be nil, in which case every date and
// time is treated as free.
func NewMachine(validator slot.Validator, slots dialogue.SlotChecker) *Machine {
	return &Machine{validator: validator, slots: slots}
}

type outcome struct {
	prompt    string
	intent    intent.Intent
	rejection *dialogue.Rejection
}

// Step mutates sess according to flow and returns the reply for this turn.
func (m *Machine) Step(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, utterance string) (dialogue.TurnResult, error) {
	text := strings.TrimSpace(utterance)

	var (
		out outcome
		err error
	)
	switch sess.State {
	case dialogue.StateGreeting:
		out, err = m.greet(ctx, flow, sess, text)
	case dialogue.StateCollecting:
		out, err = m.collect(ctx, flow, sess, text)
	case dialogue.StateConfirming:
		out = m.confirm(flow, sess, text)
	case dialogue.StateInfoQuery:
		out, err = m.inform(ctx, flow, sess, text)
	default:
		out = terminalOutcome(flow, sess.State)
	}
	if err != nil {
		return dialogue.TurnResult{}, err
	}

	sess.Turns++
	result := dialogue.Snapshot(sess, out.prompt)
	result.Intent = out.intent
	result.Rejection = out.rejection
	return result, nil
}

func (m *Machine) greet(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, text string) (outcome, error) {
	it := flow.Router.ClassifyAmong(text, intent.StartBooking, intent.AskInfo, intent.Farewell)
	switch it {
	case intent.StartBooking:
		return m.startBooking(ctx, flow, sess, text)
	case intent.AskInfo:
		if len(flow.Info) > 0 {
			sess.State = dialogue.StateInfoQuery
			return outcome{prompt: flow.Answer(text), intent: it}, nil
		}
	case intent.Farewell:
		if flow.FarewellAnywhere {
			return closing(flow, sess), nil
		}
	}
	return outcome{prompt: flow.Greeting, intent: intent.Unknown}, nil
}

func (m *Machine) inform(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, text string) (outcome, error) {
	it := flow.Router.ClassifyAmong(text, intent.StartBooking, intent.AskInfo, intent.Farewell)
	switch it {
	case intent.StartBooking:
		return m.startBooking(ctx, flow, sess, text)
	case intent.Farewell:
		return closing(flow, sess), nil
	default:
		return outcome{prompt: flow.Answer(text), intent: it}, nil
	}
}

// startBooking enters collection. Values volunteered in the same utterance are
// kept, so the first question asked is the first one still unanswered.
func (m *Machine) startBooking(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, text string) (outcome, error) {
	captured := m.volunteer(flow, sess, text, "", true)
	if rejected, out, err := m.checkSlot(ctx, flow, sess, captured); err != nil || rejected {
		out.intent = intent.StartBooking
		return out, err
	}
	out := advance(flow, sess, flow.Start)
	out.intent = intent.StartBooking
	return out, nil
}

func (m *Machine) collect(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, text string) (outcome, error) {
	spec, ok := flow.Field(sess.Field)
	if !ok {
		return advance(flow, sess, ""), nil
	}

	if flow.FarewellAnywhere && flow.Router.ClassifyAmong(text, intent.Farewell) == intent.Farewell {
		return closing(flow, sess), nil
	}

	var captured []dialogue.FieldSpec
	if spec.Kind != slot.KindText {
		captured = m.volunteer(flow, sess, text, spec.Name, false)
	}

	res := slot.Rejected(slot.ReasonMissing)
	if candidate, found := slot.Extract(spec.Kind, text); found {
		res = m.validator.Validate(spec.Kind, candidate)
	}
	if res.OK {
		sess.Fields[spec.Name] = res.Value
		captured = append(captured, spec)
	}

	if rejected, out, err := m.checkSlot(ctx, flow, sess, captured); err != nil || rejected {
		return out, err
	}

	if res.OK {
		return advance(flow, sess, ""), nil
	}

	// 只说了别的字段时不算回答了当前问题，重新提问而不是报错。
	_, attempted := slot.Volunteered(spec.Kind, text)
	if !attempted && len(captured) > 0 {
		return outcome{prompt: noted(flow, captured) + flow.Render(spec.Prompt, sess.Fields)}, nil
	}

	msg := flow.Render(spec.Reprompt(res.Reason), sess.Fields)
	prompt := msg
	if len(captured) > 0 {
		prompt = noted(flow, captured) + msg
	}
	return outcome{
		prompt:    prompt,
		rejection: &dialogue.Rejection{Field: spec.Name, Reason: res.Reason, Message: msg},
	}, nil
}

func (m *Machine) confirm(flow *dialogue.Flow, sess *dialogue.Session, text string) outcome {
	allowed := []intent.Intent{intent.Confirm, intent.Cancel}
	if flow.FarewellAnywhere {
		allowed = append(allowed, intent.Farewell)
	}

	it := flow.Router.ClassifyAmong(text, allowed...)
	switch it {
	case intent.Confirm:
		sess.State = dialogue.StateComplete
		sess.Field = ""
		return outcome{prompt: flow.Complete, intent: it}
	case intent.Cancel:
		sess.ResetFields()
		if flow.RestartOnCancel {
			sess.State = dialogue.StateGreeting
			return outcome{prompt: flow.Restart, intent: it}
		}
		sess.State = dialogue.StateCancelled
		return outcome{prompt: flow.Cancelled, intent: it}
	case intent.Farewell:
		return closing(flow, sess)
	default:
		return outcome{prompt: flow.Summary(sess.Fields), intent: intent.Unknown}
	}
}

// volunteer fills empty fields other than skip from pattern matches in text.
// Only values the validator accepts are kept. On the opening turn a name is
// taken only when stated outright ("my name is", "call me").
func (m *Machine) volunteer(flow *dialogue.Flow, sess *dialogue.Session, text, skip string, opening bool) []dialogue.FieldSpec {
	var captured []dialogue.FieldSpec
	for _, spec := range flow.Fields {
		if spec.Name == skip || sess.Fields[spec.Name] != "" {
			continue
		}
		candidate, ok := slot.Volunteered(spec.Kind, text)
		if opening && spec.Kind == slot.KindName {
			candidate, ok = slot.StatedName(text)
		}
		if !ok {
			continue
		}
		if res := m.validator.Validate(spec.Kind, candidate); res.OK {
			sess.Fields[spec.Name] = res.Value
			captured = append(captured, spec)
		}
	}
	return captured
}

// checkSlot asks the availability oracle once a date or time was set this turn
// and both are known. A taken slot clears the time and asks for it again.
func (m *Machine) checkSlot(ctx context.Context, flow *dialogue.Flow, sess *dialogue.Session, changed []dialogue.FieldSpec) (bool, outcome, error) {
	if m.slots == nil {
		return false, outcome{}, nil
	}
	dateSpec, okDate := flow.FieldOfKind(slot.KindDate)
	timeSpec, okTime := flow.FieldOfKind(slot.KindTime)
	if !okDate || !okTime {
		return false, outcome{}, nil
	}

	touched := false
	for _, spec := range changed {
		if spec.Kind == slot.KindDate || spec.Kind == slot.KindTime {
			touched = true
			break
		}
	}
	date, clock := sess.Fields[dateSpec.Name], sess.Fields[timeSpec.Name]
	if !touched || date == "" || clock == "" {
		return false, outcome{}, nil
	}

	free, err := m.slots.IsSlotFree(ctx, date, clock, sess.Context)
	if err != nil {
		return false, outcome{}, fmt.Errorf("check slot %s %s: %w", date, clock, err)
	}
	if free {
		return false, outcome{}, nil
	}

	sess.Fields[timeSpec.Name] = ""
	sess.State = dialogue.StateCollecting
	sess.Field = timeSpec.Name
	msg := flow.Render(timeSpec.Reprompt(slot.ReasonUnavailable), sess.Fields)
	return true, outcome{
		prompt:    msg,
		rejection: &dialogue.Rejection{Field: timeSpec.Name, Reason: slot.ReasonUnavailable, Message: msg},
	}, nil
}

// advance moves to the first empty field, or to confirmation when none is left.
func advance(flow *dialogue.Flow, sess *dialogue.Session, prefix string) outcome {
	next, ok := flow.NextEmpty(sess.Fields)
	if !ok {
		sess.State = dialogue.StateConfirming
		sess.Field = ""
		return outcome{prompt: prefix + flow.Summary(sess.Fields)}
	}
	sess.State = dialogue.StateCollecting
	sess.Field = next.Name
	return outcome{prompt: prefix + flow.Render(next.Prompt, sess.Fields)}
}

func closing(flow *dialogue.Flow, sess *dialogue.Session) outcome {
	sess.State = dialogue.StateClosing
	sess.Field = ""
	return outcome{prompt: flow.Closing, intent: intent.Farewell}
}

func terminalOutcome(flow *dialogue.Flow, state dialogue.State) outcome {
	switch state {
	case dialogue.StateComplete:
		return outcome{prompt: flow.AfterComplete}
	case dialogue.StateCancelled:
		return outcome{prompt: flow.Cancelled}
	default:
		return outcome{prompt: flow.Closing}
	}
}

func noted(flow *dialogue.Flow, captured []dialogue.FieldSpec) string {
	labels := make([]string, 0, len(captured))
	for _, spec := range captured {
		labels = append(labels, strings.ToLower(spec.Label))
	}
	return flow.Noted + strings.Join(labels, " and ") + ". "
}
