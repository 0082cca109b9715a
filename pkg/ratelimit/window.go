package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of counting one request against a window.
type Decision struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
	ResetAt   time.Time
}

// Counter counts requests per key inside fixed windows.
type Counter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(limit, used int, resetAt time.Time) Decision {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   used <= limit,
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// MemoryWindow is a process-local fixed window counter.
type MemoryWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*windowEntry
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewMemoryWindow allows limit requests per key per window.
func NewMemoryWindow(limit int, window time.Duration) *MemoryWindow {
	return &MemoryWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*windowEntry),
	}
}

func (m *MemoryWindow) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.windows[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(m.window)}
		m.windows[key] = entry
		m.cleanupLocked(now)
	}
	entry.count++

	return decide(m.limit, entry.count, entry.resetAt), nil
}

func (m *MemoryWindow) cleanupLocked(now time.Time) {
	for key, entry := range m.windows {
		if !now.Before(entry.resetAt) {
			delete(m.windows, key)
		}
	}
}
