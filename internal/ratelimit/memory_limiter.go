package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local fixed-window counter for deployments
// without Redis. The mutex makes concurrent checks for the same key
// atomic; state is still lost on restart and not shared across
// instances.
type MemoryLimiter struct {
	config Config
	mu     sync.Mutex
	keys   map[string]*windowEntry
	now    func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		config: config,
		keys:   make(map[string]*windowEntry),
		now:    time.Now,
	}
}

// Allow reinitializes the window when it has elapsed, then counts the
// attempt against the limit.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.keys[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(m.config.Window)}
		m.keys[key] = entry
	}

	entry.count++
	if entry.count > m.config.Limit {
		return false, entry.resetAt.Sub(now)
	}
	return true, 0
}
