package booking

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps appointments in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []Appointment
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends appt unless its slot is already taken.
func (r *MemoryRepository) Create(_ context.Context, appt Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Status == StatusConfirmed && existing.DoctorID == appt.DoctorID &&
			existing.Date == appt.Date && existing.Time == appt.Time {
			return ErrSlotTaken
		}
	}
	r.items = append(r.items, appt)
	return nil
}

// ListByDoctor returns a doctor's appointments ordered by date and time. An
// empty date lists every day.
func (r *MemoryRepository) ListByDoctor(_ context.Context, doctorID, date string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, appt := range r.items {
		if appt.DoctorID != doctorID || (date != "" && appt.Date != date) {
			continue
		}
		out = append(out, appt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}
