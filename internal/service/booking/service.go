package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/risk"
)

// ContextDoctorID is the session context key naming the doctor being booked.
const ContextDoctorID = "doctor_id"

var tracer = otel.Tracer("github.com/zhouzirui/clinic-desk/backend/internal/service/booking")

const (
	slotLength      = 30 * time.Minute
	recommendedSize = 3
)

// RiskAssessor scores a slot. Its verdict is advisory and stored with the appointment.
type RiskAssessor interface {
	Assess(ctx context.Context, req risk.Request) risk.Assessment
	Recommend(date string, free []string, n int) []string
}

// Notifier is told about every confirmed appointment.
type Notifier interface {
	Notify(ctx context.Context, appt Appointment, doc doctor.Doctor)
}

// Request is an appointment as submitted by a caller, before validation.
type Request struct {
	DoctorID    string `json:"doctorId"`
	PatientName string `json:"patientName"`
	Phone       string `json:"phone"`
	Problem     string `json:"problem"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Availability lists a doctor's slots on one date.
type Availability struct {
	DoctorID    string   `json:"doctorId"`
	Date        string   `json:"date"`
	Available   []string `json:"availableSlots"`
	Booked      []string `json:"bookedSlots"`
	Recommended []string `json:"recommendedSlots,omitempty"`
}

// Service books appointments against the doctor roster.
type Service struct {
	doctors   doctor.Store
	repo      Repository
	risk      RiskAssessor
	notifier  Notifier
	validator slot.Validator
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRiskAssessor attaches a no-show risk oracle.
func WithRiskAssessor(r RiskAssessor) Option {
	return func(s *Service) { s.risk = r }
}

// WithNotifier replaces the log notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock sets the clock used for past-date checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.validator.Now = now
	}
}

// NewService wires the booking service.
func NewService(doctors doctor.Store, repo Repository, opts ...Option) *Service {
	s := &Service{
		doctors:   doctors,
		repo:      repo,
		notifier:  LogNotifier{},
		validator: slot.NewValidator(time.Local),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Doctors returns the current roster.
func (s *Service) Doctors() []doctor.Doctor {
	return s.doctors.List()
}

// Doctor looks up one doctor.
func (s *Service) Doctor(id string) (doctor.Doctor, error) {
	doc, ok := s.doctors.FindByID(id)
	if !ok {
		return doctor.Doctor{}, ErrDoctorNotFound
	}
	return doc, nil
}

// AvailableSlots lists 30-minute slots inside the doctor's hours that are not
// yet booked.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) (Availability, error) {
	doc, err := s.Doctor(doctorID)
	if err != nil {
		return Availability{}, err
	}
	day, err := s.canonical(slot.KindDate, "date", date)
	if err != nil {
		return Availability{}, err
	}

	booked, err := s.bookedTimes(ctx, doc.ID, day)
	if err != nil {
		return Availability{}, err
	}

	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	available := make([]string, 0)
	for _, t := range workingSlots(doc) {
		if !taken[t] {
			available = append(available, t)
		}
	}

	out := Availability{DoctorID: doc.ID, Date: day, Available: available, Booked: booked}
	if s.risk != nil {
		out.Recommended = s.risk.Recommend(day, available, recommendedSize)
	}
	return out, nil
}

// Book validates and stores an appointment, then notifies.
func (s *Service) Book(ctx context.Context, req Request) (appt Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("booking.doctor_id", req.DoctorID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("booking.appointment_id", appt.ID))
		}
		span.End()
	}()

	doc, err := s.Doctor(strings.TrimSpace(req.DoctorID))
	if err != nil {
		return Appointment{}, err
	}

	appt = Appointment{
		ID:       uuid.NewString(),
		DoctorID: doc.ID,
		Status:   StatusConfirmed,
	}
	checks := []struct {
		kind  slot.Kind
		name  string
		raw   string
		value *string
	}{
		{slot.KindName, "patientName", req.PatientName, &appt.PatientName},
		{slot.KindPhone, "phone", req.Phone, &appt.Phone},
		{slot.KindText, "problem", req.Problem, &appt.Problem},
		{slot.KindDate, "date", req.Date, &appt.Date},
		{slot.KindTime, "time", req.Time, &appt.Time},
	}
	for _, c := range checks {
		v, err := s.canonical(c.kind, c.name, c.raw)
		if err != nil {
			return Appointment{}, err
		}
		*c.value = v
	}

	if !doc.Covers(appt.Time) {
		return Appointment{}, fmt.Errorf("%w: %s is available from %s to %s", ErrOutsideHours, doc.Name, doc.AvailableFrom, doc.AvailableTo)
	}

	if s.risk != nil {
		assessment := s.risk.Assess(ctx, risk.Request{
			Date:           appt.Date,
			Time:           appt.Time,
			Specialization: doc.Specialization,
			Problem:        appt.Problem,
		})
		appt.Risk = &assessment
	}
	appt.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, appt); err != nil {
		return Appointment{}, err
	}

	log.Printf("[booking] appointment %s confirmed for %s on %s %s", appt.ID, doc.ID, appt.Date, appt.Time)
	s.notifier.Notify(ctx, appt, doc)
	return appt, nil
}

// List returns a doctor's appointments, optionally for one date.
func (s *Service) List(ctx context.Context, doctorID, date string) ([]Appointment, error) {
	if _, err := s.Doctor(doctorID); err != nil {
		return nil, err
	}
	if date != "" {
		day, err := s.canonical(slot.KindDate, "date", date)
		if err != nil {
			return nil, err
		}
		date = day
	}
	return s.repo.ListByDoctor(ctx, doctorID, date)
}

// IsSlotFree answers availability for the dialogue. Without a doctor in the
// session context there is nothing to check against and every slot is free.
func (s *Service) IsSlotFree(ctx context.Context, date, clock string, sctx map[string]string) (bool, error) {
	doctorID := sctx[ContextDoctorID]
	if doctorID == "" {
		return true, nil
	}
	doc, err := s.Doctor(doctorID)
	if err != nil {
		return false, err
	}
	if !doc.Covers(clock) {
		return false, nil
	}

	booked, err := s.bookedTimes(ctx, doc.ID, date)
	if err != nil {
		return false, err
	}
	for _, t := range booked {
		if t == clock {
			return false, nil
		}
	}
	return true, nil
}

// BookFields books from the fields collected by a dialogue flow.
func (s *Service) BookFields(ctx context.Context, fields, sctx map[string]string) (Appointment, error) {
	return s.Book(ctx, Request{
		DoctorID:    sctx[ContextDoctorID],
		PatientName: firstNonEmpty(fields["patient_name"], fields["name"]),
		Phone:       fields["phone"],
		Problem:     firstNonEmpty(fields["problem"], fields["reason"]),
		Date:        fields["date"],
		Time:        fields["time"],
	})
}

func (s *Service) bookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	appts, err := s.repo.ListByDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(appts))
	for _, a := range appts {
		if a.Status == StatusConfirmed {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (s *Service) canonical(kind slot.Kind, name, raw string) (string, error) {
	res := s.validator.Validate(kind, raw)
	if !res.OK {
		return "", fmt.Errorf("%w: %s %s", ErrInvalidRequest, name, strings.ToLower(string(res.Reason)))
	}
	return res.Value, nil
}

func workingSlots(doc doctor.Doctor) []string {
	from, errFrom := time.Parse(slot.CanonicalTime, doc.AvailableFrom)
	to, errTo := time.Parse(slot.CanonicalTime, doc.AvailableTo)
	if errFrom != nil || errTo != nil {
		return nil
	}
	var out []string
	for t := from; t.Before(to); t = t.Add(slotLength) {
		out = append(out, t.Format(slot.CanonicalTime))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LogNotifier writes confirmations to the process log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, appt Appointment, doc doctor.Doctor) {
	log.Printf("[notify] appointment %s: %s (%s) with %s, phone %s, %s %s, problem: %s",
		appt.ID, doc.Name, doc.Specialization, appt.PatientName, appt.Phone, appt.Date, appt.Time, appt.Problem)
}
