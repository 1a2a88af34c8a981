package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter provides process-local fixed-window counters. It implements
// Counter for deployments that do not route rate limiting through the
// database cache table.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*counterWindow
	clock   func() time.Time
}

type counterWindow struct {
	count     int64
	windowEnd time.Time
}

// NewMemoryCounter constructs an empty in-memory counter set.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]*counterWindow),
		clock:   time.Now,
	}
}

// WithClock overrides the time source, primarily for tests.
func (c *MemoryCounter) WithClock(clock func() time.Time) *MemoryCounter {
	if clock != nil {
		c.clock = clock
	}
	return c
}

// IncrementWithTTL bumps the counter for key within its current window. The
// window is fixed from the first increment, not extended by later ones.
func (c *MemoryCounter) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// opportunistically drop stale windows so the map stays bounded
	for existing, w := range c.windows {
		if now.After(w.windowEnd) {
			delete(c.windows, existing)
		}
	}

	w, ok := c.windows[key]
	if !ok || now.After(w.windowEnd) {
		w = &counterWindow{windowEnd: now.Add(window)}
		c.windows[key] = w
	}

	w.count++
	return w.count, w.windowEnd.Sub(now), nil
}
