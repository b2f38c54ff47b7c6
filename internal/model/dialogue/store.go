package dialogue

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when a session id is unknown to the store.
var ErrSessionNotFound = errors.New("dialogue: session not found")

// UpdateFunc receives a private copy of the stored session, or nil when none
// exists, and returns the session to store. Returning an error stores nothing.
type UpdateFunc func(current *Session) (*Session, error)

// Store persists sessions by id. Update must be atomic per id: two updates of
// the same id never interleave.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, fn UpdateFunc) error
}

// SlotChecker answers whether a date and time are still free. sctx is the
// session context, e.g. the doctor being booked.
type SlotChecker interface {
	IsSlotFree(ctx context.Context, date, clock string, sctx map[string]string) (bool, error)
}

// SlotCheckerFunc adapts a function to SlotChecker.
type SlotCheckerFunc func(ctx context.Context, date, clock string, sctx map[string]string) (bool, error)

// IsSlotFree implements SlotChecker.
func (f SlotCheckerFunc) IsSlotFree(ctx context.Context, date, clock string, sctx map[string]string) (bool, error) {
	return f(ctx, date, clock, sctx)
}
