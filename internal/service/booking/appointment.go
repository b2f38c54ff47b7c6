package booking

import (
	"context"
	"errors"
	"time"

	"github.com/zhouzirui/clinic-desk/backend/internal/service/risk"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrSlotTaken      = errors.New("this time slot is already booked")
	ErrOutsideHours   = errors.New("time is outside the doctor's working hours")
	ErrInvalidRequest = errors.New("invalid appointment request")
)

// StatusConfirmed is the only status the booking service writes.
const StatusConfirmed = "confirmed"

// Appointment is a confirmed booking.
type Appointment struct {
	ID          string           `json:"id"`
	DoctorID    string           `json:"doctorId"`
	PatientName string           `json:"patientName"`
	Phone       string           `json:"phone"`
	Problem     string           `json:"problem"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	Status      string           `json:"status"`
	Risk        *risk.Assessment `json:"risk,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Repository stores appointments. Create must fail with ErrSlotTaken when a
// confirmed appointment already holds the same doctor, date and time.
type Repository interface {
	Create(ctx context.Context, appt Appointment) error
	ListByDoctor(ctx context.Context, doctorID, date string) ([]Appointment, error)
}
