package dialogue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
)

var ErrFlowRequired = errors.New("dialogue flow is required")

const tracerName = "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"

// Manager owns the sessions of one flow and runs turns against them.
type Manager struct {
	flow    *dialogue.Flow
	store   dialogue.Store
	machine *Machine
	now     func() time.Time
	tracer  trace.Tracer
}

// Option customizes a Manager.
type Option func(*Manager)

// WithSlotChecker plugs in the availability oracle consulted once date and time are known.
func WithSlotChecker(checker dialogue.SlotChecker) Option {
	return func(m *Manager) {
		m.machine.slots = checker
	}
}

// WithClock sets the clock used for past-date checks and session timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
		m.machine.validator.Now = now
	}
}

// WithLocation evaluates dates in loc. It composes with WithClock in either order.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		m.machine.validator.Loc = loc
	}
}

// WithTracer replaces the globally registered tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// NewManager wires a flow to a session store.
func NewManager(flow *dialogue.Flow, store dialogue.Store, opts ...Option) (*Manager, error) {
	if flow == nil {
		return nil, ErrFlowRequired
	}
	m := &Manager{
		flow:    flow,
		store:   store,
		machine: NewMachine(slot.NewValidator(time.Local), nil),
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Flow returns the flow this manager runs.
func (m *Manager) Flow() *dialogue.Flow {
	return m.flow
}

// ProcessTurn applies one utterance to a session, creating the session when
// the id is unknown. An empty sessionID starts a new session with a fresh id.
// Non-empty values of sctx are merged into the session context.
func (m *Manager) ProcessTurn(ctx context.Context, sessionID, utterance string, sctx map[string]string) (dialogue.TurnResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := m.tracer.Start(ctx, "dialogue.ProcessTurn", trace.WithAttributes(
		attribute.String("dialogue.flow", m.flow.Name),
		attribute.String("dialogue.session_id", sessionID),
	))
	defer span.End()

	var result dialogue.TurnResult
	err := m.store.Update(ctx, sessionID, func(current *dialogue.Session) (*dialogue.Session, error) {
		now := m.now()
		sess := current
		if sess == nil {
			sess = dialogue.NewSession(sessionID, m.flow, now)
			log.Printf("[dialogue] new %s session %s", m.flow.Name, sessionID)
		}
		for k, v := range sctx {
			if v != "" {
				sess.Context[k] = v
			}
		}

		before := sess.State
		r, err := m.machine.Step(ctx, m.flow, sess, utterance)
		if err != nil {
			return nil, err
		}
		sess.UpdatedAt = now
		if before != sess.State {
			log.Printf("[dialogue] session %s: %s -> %s", sessionID, before, sess.State)
		}
		result = r
		return sess, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dialogue.TurnResult{}, err
	}

	span.SetAttributes(
		attribute.String("dialogue.state", string(result.State)),
		attribute.String("dialogue.field", result.Field),
	)
	if result.Rejection != nil {
		span.SetAttributes(attribute.String("dialogue.rejection", string(result.Rejection.Reason)))
	}
	return result, nil
}

// Session returns a snapshot of a stored session.
func (m *Manager) Session(ctx context.Context, sessionID string) (*dialogue.Session, error) {
	return m.store.Get(ctx, sessionID)
}

// Clear forgets a session. The next turn with the same id starts over.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
