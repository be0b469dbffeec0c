package client

import (
	"sync"
	"time"
)

// Session is an authenticated user session.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *User
}

// Expired reports whether the access token has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore retains a client's current session.
type SessionStore interface {
	Load() *Session
	Save(*Session)
	Clear()
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *MemoryStore) Save(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// discardStore never retains anything.
type discardStore struct{}

func (discardStore) Load() *Session { return nil }
func (discardStore) Save(*Session)  {}
func (discardStore) Clear()         {}
