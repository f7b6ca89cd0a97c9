package session

import (
	"sort"
	"sync"
	"time"

	"jobpilot/internal/errors"
)

// Store holds per-analysis session state keyed by session id. All reads
// return cloned snapshots so callers never race with the orchestrator's
// writes.
type Store interface {
	Create(s *Session) error
	Get(id string) (*Session, error)
	Update(id string, mutate func(*Session) error) error
	Delete(id string) error
	List() []*Session
	DeleteOlderThan(age time.Duration) int
	Len() int
	CountByStatus(status Status) int
}

// MemoryStore is an in-memory Store guarded by a read-write mutex
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func notFound(id string) *errors.AppError {
	return errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "session not found", nil).
		WithContext("session_id", id)
}

// Create registers a new session. The store keeps its own copy.
func (m *MemoryStore) Create(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return errors.NewInternalError(errors.ErrCodeInvalidRequest, "session id already exists", nil).
			WithContext("session_id", s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a snapshot of the session
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	return s.Clone(), nil
}

// Update applies mutate to the stored session under the write lock. The
// mutation is atomic: readers see either the state before or after, never
// a half-applied step update. UpdatedAt is bumped on success.
func (m *MemoryStore) Update(id string, mutate func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return notFound(id)
	}
	if err := mutate(s); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// List returns snapshots of all sessions, newest first
func (m *MemoryStore) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// DeleteOlderThan removes terminal sessions whose last update is older than
// age, returning the number removed. Active sessions are never removed.
func (m *MemoryStore) DeleteOlderThan(age time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-age)
	removed := 0
	for id, s := range m.sessions {
		if s.Status.Terminal() && s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CountByStatus returns how many stored sessions currently have the status
func (m *MemoryStore) CountByStatus(status Status) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.sessions {
		if s.Status == status {
			n++
		}
	}
	return n
}
