package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/database/testutil"
)

// driverUnderTest builds each Driver implementation against the same clock so
// the contract can be verified identically for all backends.
func driversUnderTest(t *testing.T, clock *manualClock) map[string]Driver {
	t.Helper()

	fileDriver, err := NewFileDriver(t.TempDir())
	require.NoError(t, err)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	return map[string]Driver{
		"memory":   NewMemoryDriver().WithClock(clock.Now),
		"file":     fileDriver.WithClock(clock.Now),
		"database": NewDatabaseDriver(db).WithClock(clock.Now),
	}
}

func TestDriverContract(t *testing.T) {
	clock := newManualClock()
	ctx := context.Background()

	for name, driver := range driversUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			now := clock.Now()

			// miss on absent key
			_, found, err := driver.Get(ctx, "absent")
			require.NoError(t, err)
			require.False(t, found)

			// set then get
			require.NoError(t, driver.Set(ctx, Entry{
				Key:       "list",
				Value:     []byte("value-1"),
				Type:      "testimonials",
				CreatedAt: now,
				ExpiresAt: now.Add(time.Minute),
			}))

			entry, found, err := driver.Get(ctx, "list")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("value-1"), entry.Value)
			require.Equal(t, "testimonials", entry.Type)

			// overwrite wins
			require.NoError(t, driver.Set(ctx, Entry{
				Key:       "list",
				Value:     []byte("value-2"),
				Type:      "testimonials",
				CreatedAt: now,
				ExpiresAt: now.Add(time.Minute),
			}))
			entry, found, err = driver.Get(ctx, "list")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("value-2"), entry.Value)

			// delete is idempotent
			removed, err := driver.Delete(ctx, "list")
			require.NoError(t, err)
			require.EqualValues(t, 1, removed)
			removed, err = driver.Delete(ctx, "list")
			require.NoError(t, err)
			require.EqualValues(t, 0, removed)
		})
	}
}

func TestDriverContractExpiry(t *testing.T) {
	clock := newManualClock()
	ctx := context.Background()

	for name, driver := range driversUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			now := clock.Now()
			require.NoError(t, driver.Set(ctx, Entry{
				Key:       name + ":ephemeral",
				Value:     []byte("x"),
				Type:      "config",
				CreatedAt: now,
				ExpiresAt: now.Add(time.Second),
			}))

			clock.Advance(2 * time.Second)

			_, found, err := driver.Get(ctx, name+":ephemeral")
			require.NoError(t, err)
			require.False(t, found, "expired entries must never be returned")

			clock.Advance(-2 * time.Second)
		})
	}
}

func TestDriverContractDeleteByTypeAndExpiredSweep(t *testing.T) {
	clock := newManualClock()
	ctx := context.Background()

	for name, driver := range driversUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			now := clock.Now()

			entries := []Entry{
				{Key: "t1", Value: []byte("a"), Type: "testimonials", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				{Key: "t2", Value: []byte("b"), Type: "testimonials", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				{Key: "c1", Value: []byte("c"), Type: "config", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				{Key: "old", Value: []byte("d"), Type: "config", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
			}
			for _, entry := range entries {
				require.NoError(t, driver.Set(ctx, entry))
			}

			removed, err := driver.DeleteByType(ctx, "testimonials")
			require.NoError(t, err)
			require.EqualValues(t, 2, removed)

			_, found, err := driver.Get(ctx, "c1")
			require.NoError(t, err)
			require.True(t, found)

			removed, err = driver.DeleteExpired(ctx, now)
			require.NoError(t, err)
			require.EqualValues(t, 1, removed)

			removed, err = driver.Flush(ctx)
			require.NoError(t, err)
			require.EqualValues(t, 1, removed)
		})
	}
}

func TestDatabaseDriverIncrementWithTTL(t *testing.T) {
	clock := newManualClock()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	driver := NewDatabaseDriver(db).WithClock(clock.Now)
	ctx := context.Background()

	count, ttl, err := driver.IncrementWithTTL(ctx, "ratelimit:10.0.0.1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	count, _, err = driver.IncrementWithTTL(ctx, "ratelimit:10.0.0.1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// a fresh window restarts the counter
	clock.Advance(2 * time.Minute)
	count, _, err = driver.IncrementWithTTL(ctx, "ratelimit:10.0.0.1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
