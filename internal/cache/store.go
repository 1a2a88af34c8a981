package cache

import (
	"context"
	"time"
)

// Entry is a single cached value together with its expiry and logical type.
// An entry is valid iff now < ExpiresAt.
type Entry struct {
	Key       string
	Value     []byte
	Type      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry may no longer be served.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Driver is the pluggable storage backend behind the application cache.
// The cache contract must hold identically for every implementation:
// Get never returns an expired entry, Set overwrites, deletes are
// idempotent (delete-if-present, delete-if-expired).
type Driver interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	DeleteByType(ctx context.Context, entryType string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Flush(ctx context.Context) (int64, error)
}

// Counter supports fixed-window counters used for rate limiting.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
