// Package session stores dialogue sessions in memory or in PostgreSQL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
)

// MemoryStore keeps sessions in process memory.
// Updates on the same id are serialized by a per-id lock, updates on
// different ids run concurrently.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*dialogue.Session

	locksMu sync.Mutex
	locks   map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*dialogue.Session),
		locks:    make(map[string]*keyLock),
	}
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(_ context.Context, id string) (*dialogue.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, dialogue.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Put stores a copy of sess under sess.ID.
func (s *MemoryStore) Put(_ context.Context, sess *dialogue.Session) error {
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Update runs fn under the lock of id and stores its result.
func (s *MemoryStore) Update(ctx context.Context, id string, fn dialogue.UpdateFunc) error {
	unlock := s.lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	current := s.sessions[id].Clone()
	s.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	s.mu.Lock()
	s.sessions[id] = next.Clone()
	s.mu.Unlock()
	return nil
}

// Len reports how many sessions are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &keyLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}
