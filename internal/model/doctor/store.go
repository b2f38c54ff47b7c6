package doctor

import "sync"

// Store exposes doctor retrieval for handlers and the booking service.
type Store interface {
	List() []Doctor
	FindByID(id string) (Doctor, bool)
}

// MemoryStore implements Store with an in-memory slice. The roster can be
// swapped at runtime when the roster file changes.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Doctor
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied doctors.
func NewMemoryStore(items []Doctor) *MemoryStore {
	return &MemoryStore{items: append([]Doctor(nil), items...)}
}

// List returns the current roster.
func (s *MemoryStore) List() []Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Doctor(nil), s.items...)
}

// FindByID looks up a doctor by identifier.
func (s *MemoryStore) FindByID(id string) (Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Doctor{}, false
}

// Replace swaps the whole roster.
func (s *MemoryStore) Replace(items []Doctor) {
	s.mu.Lock()
	s.items = append([]Doctor(nil), items...)
	s.mu.Unlock()
}
