package statscache

import (
	"context"
	"sync"

	"github.com/metalforge/sheetcost/internal/toolpath"
)

// Memory is an in-process Cache backed by a map guarded by an
// RWMutex. It is the default backend: correct for a single process and
// good enough for most runs, since entries are never evicted or
// mutated once written.
type Memory struct {
	mu      sync.RWMutex
	entries map[toolpath.ContentHash]toolpath.Stats
}

// NewMemory returns an empty in-process Cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[toolpath.ContentHash]toolpath.Stats)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key toolpath.ContentHash) (toolpath.Stats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.entries[key]
	return stats, ok, nil
}

// Put implements Cache. Overwriting an existing key with identical
// content is harmless since entries are content-addressed and
// therefore immutable in practice; Put never errors.
func (m *Memory) Put(_ context.Context, key toolpath.ContentHash, stats toolpath.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = stats
	return nil
}

// Len reports the number of memoised drawings, mostly useful in tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
