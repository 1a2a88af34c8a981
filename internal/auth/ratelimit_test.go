package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
)

func TestWindowLimiterEnforcesBudgetPerAddress(t *testing.T) {
	clock := newManualClock()
	counter := cache.NewMemoryCounter().WithClock(clock.Now)
	limiter := NewWindowLimiter(counter, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Attempt(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Attempt(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.False(t, allowed)

	// Other addresses keep their own budget.
	allowed, err = limiter.Attempt(ctx, "198.51.100.2")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	clock := newManualClock()
	counter := cache.NewMemoryCounter().WithClock(clock.Now)
	limiter := NewWindowLimiter(counter, 1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Attempt(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Attempt(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.False(t, allowed)

	clock.Advance(time.Minute + time.Second)

	allowed, err = limiter.Attempt(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestWindowLimiterDefaults(t *testing.T) {
	limiter := NewWindowLimiter(cache.NewMemoryCounter(), 0, 0)
	require.EqualValues(t, DefaultRateLimitAttempts, limiter.max)
	require.Equal(t, DefaultRateLimitWindow, limiter.window)

	// A limiter without a backing counter admits everything.
	bare := &WindowLimiter{}
	allowed, err := bare.Attempt(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	require.True(t, allowed)
}
