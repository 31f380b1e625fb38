// Package registry tracks in-flight video operations keyed by their opaque
// operation ID. Records are retained for a bounded window so abandoned
// operations do not accumulate: a caller that never polls to completion
// still gets its entry evicted.
package registry

import (
	"context"
	"sync"
	"time"

	"virezo-server/internal/domain"
)

// DefaultRetention is how long a record survives without being deleted by a
// terminal read.
const DefaultRetention = 10 * time.Minute

const sweepInterval = 30 * time.Second

// Store is the registry contract shared by the orchestrator (writer) and the
// status endpoint (reader/deleter).
type Store interface {
	Put(ctx context.Context, id string, op *domain.Operation) error
	Get(ctx context.Context, id string) (*domain.Operation, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	op       *domain.Operation
	storedAt time.Time
}

// Memory is an in-process Store backed by a mutex-protected map with a
// background eviction sweep. Registry state is lost on restart; this is an
// accepted single-instance limitation.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	retention time.Duration
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewMemory constructs a memory store. A non-positive retention falls back to
// DefaultRetention.
func NewMemory(retention time.Duration) *Memory {
	if retention <= 0 {
		retention = DefaultRetention
	}
	m := &Memory{
		entries:   make(map[string]memoryEntry),
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Put(_ context.Context, id string, op *domain.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{op: op, storedAt: m.now()}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry.op, nil
}

// Delete removes the entry. Removing an absent key is a no-op.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Stop halts the eviction sweep. Safe to call more than once.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *Memory) evictExpired() {
	cutoff := m.now().Add(-m.retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, entry := range m.entries {
		if entry.storedAt.Before(cutoff) {
			delete(m.entries, id)
		}
	}
}

var _ Store = (*Memory)(nil)
