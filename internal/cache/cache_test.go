package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T, cfg Config) (*Cache, *manualClock) {
	t.Helper()

	clock := newManualClock()
	driver := NewMemoryDriver().WithClock(clock.Now)

	cfg.Enabled = true
	cfg.Clock = clock.Now
	if cfg.Rand == nil {
		cfg.Rand = func() float64 { return 1 } // never sweep unless a test opts in
	}

	c, err := New(driver, cfg)
	require.NoError(t, err)
	return c, clock
}

func TestPutThenGetReturnsValueUntilExpiry(t *testing.T) {
	c, clock := newTestCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "greeting", []byte("hello"), 10*time.Second, "config"))

	value, ok := c.Get(ctx, "greeting")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), value)

	clock.Advance(11 * time.Second)

	_, ok = c.Get(ctx, "greeting")
	require.False(t, ok)
}

func TestRememberInvokesProducerOncePerMiss(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	calls := 0
	producer := func() ([]byte, error) {
		calls++
		return []byte(`{"total":3}`), nil
	}

	first, err := c.Remember(ctx, "stats", 10*time.Minute, "testimonials", producer)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"total":3}`), first)

	second, err := c.Remember(ctx, "stats", 10*time.Minute, "testimonials", producer)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestRememberProducerErrorPropagatesAndStoresNothing(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	wantErr := errors.New("query failed")
	_, err := c.Remember(ctx, "broken", time.Minute, "config", func() ([]byte, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	_, ok := c.Get(ctx, "broken")
	require.False(t, ok)
}

func TestClearByTypeOnlyRemovesMatchingEntries(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "t:list", []byte("a"), time.Minute, "testimonials"))
	require.NoError(t, c.Put(ctx, "t:count", []byte("b"), time.Minute, "testimonials"))
	require.NoError(t, c.Put(ctx, "site:config", []byte("c"), time.Minute, "config"))

	removed := c.ClearByType(ctx, "testimonials")
	require.EqualValues(t, 2, removed)

	_, ok := c.Get(ctx, "t:list")
	require.False(t, ok)
	_, ok = c.Get(ctx, "t:count")
	require.False(t, ok)

	value, ok := c.Get(ctx, "site:config")
	require.True(t, ok)
	require.Equal(t, []byte("c"), value)
}

func TestTypePolicyResolvesDefaultTTL(t *testing.T) {
	c, clock := newTestCache(t, Config{
		DefaultTTL: time.Hour,
		Types: map[string]TypePolicy{
			"testimonials": {TTL: 10 * time.Minute},
		},
	})
	ctx := context.Background()

	// no explicit TTL: the type policy wins over the cache default
	require.NoError(t, c.Put(ctx, "t:list", []byte("a"), 0, "testimonials"))
	require.NoError(t, c.Put(ctx, "site:config", []byte("b"), 0, "config"))

	clock.Advance(11 * time.Minute)

	_, ok := c.Get(ctx, "t:list")
	require.False(t, ok)

	_, ok = c.Get(ctx, "site:config")
	require.True(t, ok)
}

func TestForgetRemovesSingleKey(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "one", []byte("1"), time.Minute, "config"))
	require.True(t, c.Forget(ctx, "one"))
	require.False(t, c.Forget(ctx, "one"))
}

func TestStatsCountersTrackOperations(t *testing.T) {
	c, clock := newTestCache(t, Config{})
	ctx := context.Background()

	_, ok := c.Get(ctx, "absent")
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, "key", []byte("v"), time.Minute, "config"))
	_, ok = c.Get(ctx, "key")
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get(ctx, "key")
	require.False(t, ok)

	snap := c.Stats().Snapshot()
	require.EqualValues(t, 1, snap.Hits)
	require.EqualValues(t, 2, snap.Misses)
	require.EqualValues(t, 1, snap.Writes)

	c.Stats().Reset()
	require.EqualValues(t, Snapshot{}, c.Stats().Snapshot())
}

func TestProbabilisticCleanupSweepsExpiredEntries(t *testing.T) {
	clock := newManualClock()
	driver := NewMemoryDriver().WithClock(clock.Now)

	sweep := false
	c, err := New(driver, Config{
		Enabled: true,
		Clock:   clock.Now,
		Rand: func() float64 {
			if sweep {
				return 0 // below any positive probability: always sweep
			}
			return 1
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "short", []byte("s"), time.Second, "config"))
	require.NoError(t, c.Put(ctx, "long", []byte("l"), time.Hour, "config"))

	clock.Advance(2 * time.Second)
	sweep = true

	// any operation may trigger the sweep, independent of its key
	_, _ = c.Get(ctx, "unrelated")

	require.Equal(t, 1, driver.Len())
	require.GreaterOrEqual(t, c.Stats().Snapshot().Evictions, int64(1))
}

func TestDisabledCacheAlwaysInvokesProducer(t *testing.T) {
	clock := newManualClock()
	driver := NewMemoryDriver().WithClock(clock.Now)

	c, err := New(driver, Config{Enabled: false, Clock: clock.Now, Rand: func() float64 { return 1 }})
	require.NoError(t, err)

	ctx := context.Background()
	calls := 0
	producer := func() ([]byte, error) {
		calls++
		return []byte("fresh"), nil
	}

	for range 3 {
		value, err := c.Remember(ctx, "key", time.Minute, "config", producer)
		require.NoError(t, err)
		require.Equal(t, []byte("fresh"), value)
	}
	require.Equal(t, 3, calls)

	_, ok := c.Get(ctx, "key")
	require.False(t, ok)
}

type failingDriver struct{}

func (failingDriver) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("backend down")
}
func (failingDriver) Set(context.Context, Entry) error { return errors.New("backend down") }
func (failingDriver) Delete(context.Context, ...string) (int64, error) {
	return 0, errors.New("backend down")
}
func (failingDriver) DeleteByType(context.Context, string) (int64, error) {
	return 0, errors.New("backend down")
}
func (failingDriver) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("backend down")
}
func (failingDriver) Flush(context.Context) (int64, error) { return 0, errors.New("backend down") }

func TestStorageFailureDegradesToProducer(t *testing.T) {
	c, err := New(failingDriver{}, Config{Enabled: true, Rand: func() float64 { return 1 }})
	require.NoError(t, err)

	ctx := context.Background()
	calls := 0
	value, err := c.Remember(ctx, "key", time.Minute, "config", func() ([]byte, error) {
		calls++
		return []byte("produced"), nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte("produced"), value)
	require.Equal(t, 1, calls)

	// reads against a broken backend are plain misses
	_, ok := c.Get(ctx, "key")
	require.False(t, ok)
}

func TestRememberJSONRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	type totals struct {
		Total int `json:"total"`
	}

	calls := 0
	result, err := RememberJSON(ctx, c, "stats", 600*time.Second, "testimonials", func() (totals, error) {
		calls++
		return totals{Total: 3}, nil
	})
	require.NoError(t, err)
	require.Equal(t, totals{Total: 3}, result)

	// underlying data changes, cache must be invalidated explicitly
	removed := c.ClearByType(ctx, "testimonials")
	require.EqualValues(t, 1, removed)

	result, err = RememberJSON(ctx, c, "stats", 600*time.Second, "testimonials", func() (totals, error) {
		calls++
		return totals{Total: 4}, nil
	})
	require.NoError(t, err)
	require.Equal(t, totals{Total: 4}, result)
	require.Equal(t, 2, calls)
}

func TestRememberJSONRecoversFromCorruptPayload(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "stats", []byte("{not json"), time.Minute, "testimonials"))

	type totals struct {
		Total int `json:"total"`
	}
	result, err := RememberJSON(ctx, c, "stats", time.Minute, "testimonials", func() (totals, error) {
		return totals{Total: 7}, nil
	})
	require.NoError(t, err)
	require.Equal(t, totals{Total: 7}, result)
}

func TestPerTypeDriverOverride(t *testing.T) {
	clock := newManualClock()
	defaultDriver := NewMemoryDriver().WithClock(clock.Now)
	configDriver := NewMemoryDriver().WithClock(clock.Now)

	c, err := New(defaultDriver, Config{
		Enabled: true,
		Clock:   clock.Now,
		Rand:    func() float64 { return 1 },
		Types: map[string]TypePolicy{
			"config": {Driver: configDriver},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "site", []byte("cfg"), time.Minute, "config"))

	require.Equal(t, 0, defaultDriver.Len())
	require.Equal(t, 1, configDriver.Len())

	// key-only reads still find entries stored through the override
	value, ok := c.Get(ctx, "site")
	require.True(t, ok)
	require.Equal(t, []byte("cfg"), value)

	require.EqualValues(t, 1, c.ClearByType(ctx, "config"))
	require.Equal(t, 0, configDriver.Len())
}

func TestPrefixNamespacesKeys(t *testing.T) {
	clock := newManualClock()
	driver := NewMemoryDriver().WithClock(clock.Now)

	c, err := New(driver, Config{
		Enabled: true,
		Prefix:  "portfolio",
		Clock:   clock.Now,
		Rand:    func() float64 { return 1 },
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "greeting", []byte("hi"), time.Minute, "config"))

	entry, found, err := driver.Get(ctx, "portfolio:greeting")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("hi"), entry.Value)

	_, found, err = driver.Get(ctx, "greeting")
	require.NoError(t, err)
	require.False(t, found)
}
