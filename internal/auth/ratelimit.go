package auth

import (
	"context"
	"time"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
)

// Rate limit defaults: five attempts per source address per fifteen minutes.
const (
	DefaultRateLimitAttempts = 5
	DefaultRateLimitWindow   = 15 * time.Minute
)

const limiterKeyPrefix = "auth:login:"

// LoginLimiter throttles login attempts per source address. Attempt records
// the attempt and reports whether it is still within budget.
type LoginLimiter interface {
	Attempt(ctx context.Context, ip string) (bool, error)
}

// WindowLimiter counts attempts in fixed windows on top of a cache Counter
// (in-memory or the database cache table).
type WindowLimiter struct {
	counter cache.Counter
	max     int64
	window  time.Duration
}

// NewWindowLimiter constructs a limiter; zero values fall back to defaults.
func NewWindowLimiter(counter cache.Counter, maxAttempts int, window time.Duration) *WindowLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRateLimitAttempts
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &WindowLimiter{
		counter: counter,
		max:     int64(maxAttempts),
		window:  window,
	}
}

// Attempt implements LoginLimiter. Unknown source addresses share the empty
// key, which still bounds anonymous attempts as a group.
func (l *WindowLimiter) Attempt(ctx context.Context, ip string) (bool, error) {
	if l == nil || l.counter == nil {
		return true, nil
	}

	count, _, err := l.counter.IncrementWithTTL(ctx, limiterKeyPrefix+ip, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.max, nil
}
