// Package dedup drops repeated deliveries of the same processor event
// inside a bounded window. It is advisory: handlers stay idempotent on
// business keys.
package dedup

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultWindow        = 5 * time.Minute
	DefaultHighWaterMark = 10000
)

// Store records event ids on first sight.
type Store interface {
	// IsDuplicate reports whether id was seen inside the window, recording
	// it when it was not.
	IsDuplicate(ctx context.Context, id string) (bool, error)
	// Forget releases id so a redelivery after a failed attempt is processed.
	Forget(ctx context.Context, id string) error
}

var errEmptyID = errors.New("event id is required")

// MemoryStore is a per-process Store. Expired ids are swept only once the
// map grows past the high-water mark.
type MemoryStore struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	window    time.Duration
	highWater int
	now       func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(window time.Duration, highWater int, opts ...MemoryOption) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	if highWater <= 0 {
		highWater = DefaultHighWaterMark
	}
	m := &MemoryStore{
		seen:      make(map[string]time.Time),
		window:    window,
		highWater: highWater,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) IsDuplicate(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, errEmptyID
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if seenAt, ok := m.seen[id]; ok && now.Sub(seenAt) < m.window {
		return true, nil
	}
	m.seen[id] = now
	if len(m.seen) > m.highWater {
		m.sweepLocked(now)
	}
	return false, nil
}

func (m *MemoryStore) Forget(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.seen, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many ids are currently tracked.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for id, seenAt := range m.seen {
		if now.Sub(seenAt) >= m.window {
			delete(m.seen, id)
		}
	}
}
