package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in a process-local map.
// Entries are only removed by Sweep; without a sweeper the map grows with
// the number of distinct sources seen since startup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Increment implements Store.
func (m *MemoryStore) Increment(_ context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &Entry{WindowStart: now}
		m.entries[key] = e
	}

	// The window rolls forward lazily, only when the key is seen again.
	if now.Sub(e.WindowStart) > window {
		e.Count = 0
		e.WindowStart = now
	}

	e.Count++
	e.ResetAt = e.WindowStart.Add(window)
	return *e, nil
}

// Sweep removes entries whose window, measured with the current window
// length, expired before now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.WindowStart) > window {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
