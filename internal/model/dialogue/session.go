package dialogue

import "time"

// State is the position of a session in its flow.
type State string

const (
	StateGreeting   State = "GREETING"
	StateCollecting State = "COLLECTING"
	StateConfirming State = "CONFIRMING"
	StateComplete   State = "COMPLETE"
	StateCancelled  State = "CANCELLED"
	StateInfoQuery  State = "INFO_QUERY"
	StateClosing    State = "CLOSING"
)

// Terminal reports whether no further transitions leave the state.
func (s State) Terminal() bool {
	switch s {
	case StateComplete, StateCancelled, StateClosing:
		return true
	default:
		return false
	}
}

// Session is one ongoing conversation.
// Fields only ever holds validated canonical values; Context is carried across
// turns and never interpreted by the state machine.
type Session struct {
	ID        string            `json:"id"`
	Flow      string            `json:"flow"`
	State     State             `json:"state"`
	Field     string            `json:"field,omitempty"`
	Fields    map[string]string `json:"fields"`
	Context   map[string]string `json:"context"`
	Turns     int               `json:"turns"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewSession starts a session in GREETING with every flow field empty.
func NewSession(id string, flow *Flow, now time.Time) *Session {
	fields := make(map[string]string, len(flow.Fields))
	for _, spec := range flow.Fields {
		fields[spec.Name] = ""
	}
	return &Session{
		ID:        id,
		Flow:      flow.Name,
		State:     StateGreeting,
		Fields:    fields,
		Context:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Fields = copyMap(s.Fields)
	cp.Context = copyMap(s.Context)
	return &cp
}

// ResetFields empties every collected value but keeps the context.
func (s *Session) ResetFields() {
	for name := range s.Fields {
		s.Fields[name] = ""
	}
	s.Field = ""
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
