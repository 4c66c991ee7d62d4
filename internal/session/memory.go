package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"booknest/internal/model"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[sessionID]
	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, model.ErrSessionNotFound
	}

	return maps.Clone(entry.values), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, values map[string]string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sessionID] = memoryEntry{values: maps.Clone(values), expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, sessionID)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
			purged++
		}
	}
	return purged, nil
}
