package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryDriver stores entries in a process-local map. It is the default
// driver for single-instance deployments and tests.
type MemoryDriver struct {
	mu      sync.RWMutex
	entries map[string]Entry
	clock   func() time.Time
}

// NewMemoryDriver constructs an empty in-memory driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		entries: make(map[string]Entry),
		clock:   time.Now,
	}
}

// WithClock overrides the time source, primarily for tests.
func (d *MemoryDriver) WithClock(clock func() time.Time) *MemoryDriver {
	if clock != nil {
		d.clock = clock
	}
	return d
}

// Get returns the live entry for key. Expired entries are removed and
// reported as a miss.
func (d *MemoryDriver) Get(_ context.Context, key string) (Entry, bool, error) {
	d.mu.RLock()
	entry, ok := d.entries[key]
	d.mu.RUnlock()

	if !ok {
		return Entry{}, false, nil
	}

	if entry.Expired(d.clock()) {
		d.mu.Lock()
		// re-check under the write lock; a concurrent Set may have renewed it
		if current, still := d.entries[key]; still && current.Expired(d.clock()) {
			delete(d.entries, key)
		}
		d.mu.Unlock()
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set stores or overwrites the entry for its key.
func (d *MemoryDriver) Set(_ context.Context, entry Entry) error {
	d.mu.Lock()
	d.entries[entry.Key] = entry
	d.mu.Unlock()
	return nil
}

// Delete removes the given keys, returning how many were present.
func (d *MemoryDriver) Delete(_ context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var removed int64
	d.mu.Lock()
	for _, key := range keys {
		if _, ok := d.entries[key]; ok {
			delete(d.entries, key)
			removed++
		}
	}
	d.mu.Unlock()
	return removed, nil
}

// DeleteByType removes every entry tagged with entryType.
func (d *MemoryDriver) DeleteByType(_ context.Context, entryType string) (int64, error) {
	var removed int64
	d.mu.Lock()
	for key, entry := range d.entries {
		if entry.Type == entryType {
			delete(d.entries, key)
			removed++
		}
	}
	d.mu.Unlock()
	return removed, nil
}

// DeleteExpired sweeps out every entry whose expiry has passed.
func (d *MemoryDriver) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	d.mu.Lock()
	for key, entry := range d.entries {
		if entry.Expired(now) {
			delete(d.entries, key)
			removed++
		}
	}
	d.mu.Unlock()
	return removed, nil
}

// Flush drops every entry.
func (d *MemoryDriver) Flush(_ context.Context) (int64, error) {
	d.mu.Lock()
	removed := int64(len(d.entries))
	d.entries = make(map[string]Entry)
	d.mu.Unlock()
	return removed, nil
}

// Len reports the number of stored entries, expired or not.
func (d *MemoryDriver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
