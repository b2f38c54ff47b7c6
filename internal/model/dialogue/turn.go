package dialogue

import (
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
)

// Rejection describes why the value offered for a field was not accepted.
type Rejection struct {
	Field   string      `json:"field"`
	Reason  slot.Reason `json:"reason"`
	Message string      `json:"message"`
}

// TurnResult is what one processed turn returns to the caller.
type TurnResult struct {
	Prompt     string            `json:"prompt"`
	SessionID  string            `json:"sessionId"`
	Flow       string            `json:"flow"`
	State      State             `json:"state"`
	Field      string            `json:"field,omitempty"`
	Fields     map[string]string `json:"fields"`
	Context    map[string]string `json:"context"`
	IsComplete bool              `json:"isComplete"`
	Ended      bool              `json:"ended"`
	Intent     intent.Intent     `json:"intent,omitempty"`
	Rejection  *Rejection        `json:"rejection,omitempty"`
}

// Snapshot builds a TurnResult for the session as it is now.
func Snapshot(sess *Session, prompt string) TurnResult {
	return TurnResult{
		Prompt:     prompt,
		SessionID:  sess.ID,
		Flow:       sess.Flow,
		State:      sess.State,
		Field:      sess.Field,
		Fields:     copyMap(sess.Fields),
		Context:    copyMap(sess.Context),
		IsComplete: sess.State == StateComplete,
		Ended:      sess.State.Terminal(),
	}
}
