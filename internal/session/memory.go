package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	role      string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, role string, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	e := memoryEntry{role: role}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.sessions[token] = e
	return token, nil
}

func (m *MemoryStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return "", false, nil
	}
	if m.expired(e) {
		delete(m.sessions, token)
		return "", false, nil
	}
	return e.role, true, nil
}

func (m *MemoryStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len reports live sessions, for tests and metrics.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.sessions)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryStore) sweepLocked() {
	for k, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, k)
		}
	}
}
