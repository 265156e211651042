package session

import (
	"context"
	"crypto/rand"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Store = (*Memory)(nil)

// Memory is an in-memory session store with TTL-based expiration.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
}

// MemoryOption configures the memory store.
type MemoryOption func(*Memory)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of live sessions.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a new in-memory session store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		sessions: make(map[string]*Session),
		ttl:      24 * time.Hour,
		maxSize:  10000,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session for userID.
func (m *Memory) Create(_ context.Context, userID string) (*Session, error) {
	now := m.now()
	s := &Session{
		Token:     rand.Text(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.sessions) >= m.maxSize {
		m.evictExpired(now)
		if len(m.sessions) >= m.maxSize {
			m.evictOldest()
		}
	}
	m.sessions[s.Token] = s

	c := *s
	return &c, nil
}

// Get returns the live session for token.
func (m *Memory) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

// Delete ends the session for token.
func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// DeleteUser ends every session of userID.
func (m *Memory) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, k)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// evictExpired removes all expired sessions. Must hold write lock.
func (m *Memory) evictExpired(now time.Time) {
	for k, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, k)
		}
	}
}

// evictOldest removes the session closest to expiry. Must hold write lock.
func (m *Memory) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for k, s := range m.sessions {
		if oldest == "" || s.ExpiresAt.Before(at) {
			oldest, at = k, s.ExpiresAt
		}
	}
	delete(m.sessions, oldest)
}
