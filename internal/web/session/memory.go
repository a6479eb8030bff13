package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart and are not shared between replicas.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]memoryEntry{},
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return maps.Clone(entry.values), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, values map[string]string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = memoryEntry{
		values:    maps.Clone(values),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteExpired drops every expired session and returns how many were removed.
func (m *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
