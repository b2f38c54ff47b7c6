// Package frontdesk routes turns to the dialogue flows and books the
// appointment once a booking conversation completes.
package frontdesk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
)

var ErrUnknownFlow = errors.New("unknown dialogue flow")

// Booker turns collected fields into an appointment.
type Booker interface {
	BookFields(ctx context.Context, fields, sctx map[string]string) (booking.Appointment, error)
}

// Reply is a turn result plus the appointment booked on completion, if any.
type Reply struct {
	dialogue.TurnResult
	Appointment  *booking.Appointment `json:"appointment,omitempty"`
	BookingError string               `json:"bookingError,omitempty"`
}

// Desk holds one dialogue manager per flow.
type Desk struct {
	managers map[string]*dialoguesvc.Manager
	booker   Booker
}

// New builds a Desk. booker may be nil, in which case completed conversations
// are returned without booking.
func New(booker Booker, managers ...*dialoguesvc.Manager) *Desk {
	d := &Desk{
		managers: make(map[string]*dialoguesvc.Manager, len(managers)),
		booker:   booker,
	}
	for _, m := range managers {
		d.managers[m.Flow().Name] = m
	}
	return d
}

// Flows lists the flow names the desk serves.
func (d *Desk) Flows() []string {
	names := make([]string, 0, len(d.managers))
	for name := range d.managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Turn runs one utterance through a flow. When the conversation completes and
// the session context names a doctor, the appointment is booked and the
// session forgotten.
func (d *Desk) Turn(ctx context.Context, flow, sessionID, message string, sctx map[string]string) (Reply, error) {
	m, err := d.manager(flow)
	if err != nil {
		return Reply{}, err
	}

	res, err := m.ProcessTurn(ctx, sessionID, message, sctx)
	if err != nil {
		return Reply{}, err
	}
	reply := Reply{TurnResult: res}

	if !res.IsComplete || d.booker == nil || res.Context[booking.ContextDoctorID] == "" {
		return reply, nil
	}

	appt, err := d.booker.BookFields(ctx, res.Fields, res.Context)
	if err != nil {
		log.Printf("[frontdesk] booking for session %s failed: %v", res.SessionID, err)
		reply.BookingError = err.Error()
	} else {
		reply.Appointment = &appt
	}
	if err := m.Clear(ctx, res.SessionID); err != nil {
		log.Printf("[frontdesk] clear session %s failed: %v", res.SessionID, err)
	}
	return reply, nil
}

// Session returns a stored session of a flow.
func (d *Desk) Session(ctx context.Context, flow, sessionID string) (*dialogue.Session, error) {
	m, err := d.manager(flow)
	if err != nil {
		return nil, err
	}
	return m.Session(ctx, sessionID)
}

// Clear forgets a session of a flow.
func (d *Desk) Clear(ctx context.Context, flow, sessionID string) error {
	m, err := d.manager(flow)
	if err != nil {
		return err
	}
	return m.Clear(ctx, sessionID)
}

func (d *Desk) manager(flow string) (*dialoguesvc.Manager, error) {
	m, ok := d.managers[flow]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, flow)
	}
	return m, nil
}
