// Package ratelimit provides a swappable windowed request counter.
// This is part of the platform layer and contains no business logic.
//
// The counter is advisory: it backs best-effort throttling on administrative
// routes and is deliberately kept out of the core workflow dependency graph.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Counter counts requests per key within a fixed window. Implementations may
// be process-local (MemoryCounter) or shared across processes (RedisCounter).
type Counter interface {
	// Increment bumps the counter for key and returns the count observed in
	// the current window, including this call.
	Increment(ctx context.Context, key string) (int64, error)
}

type memoryEntry struct {
	count       int64
	windowStart time.Time
}

// MemoryCounter is an in-memory Counter for single-process deployments.
// Counts reset when the process restarts.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	window  time.Duration
	now     func() time.Time
}

// NewMemoryCounter creates a MemoryCounter with the given window.
func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*memoryEntry),
		window:  window,
		now:     time.Now,
	}
}

// Increment implements Counter.
func (m *MemoryCounter) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || now.Sub(entry.windowStart) > m.window {
		m.entries[key] = &memoryEntry{count: 1, windowStart: now}
		return 1, nil
	}

	entry.count++
	return entry.count, nil
}

// Compile-time check that MemoryCounter implements Counter.
var _ Counter = (*MemoryCounter)(nil)
