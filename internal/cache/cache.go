package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

// DefaultTTL is the fallback entry lifetime when neither the call site nor
// the type policy supplies one.
const DefaultTTL = time.Hour

// DefaultCleanupProbability triggers the inline expired-entry sweep on
// roughly 2% of cache operations.
const DefaultCleanupProbability = 0.02

// TypePolicy carries per-type overrides. A zero TTL falls back to the cache
// default; a nil Driver uses the cache default driver.
type TypePolicy struct {
	TTL    time.Duration
	Driver Driver
}

// Config tunes an application cache instance.
type Config struct {
	Enabled            bool
	Prefix             string
	DefaultTTL         time.Duration
	CleanupProbability float64
	Types              map[string]TypePolicy
	Stats              *Stats
	Clock              func() time.Time
	Rand               func() float64
	Logger             *zap.Logger
}

// Cache is the application-facing cache: a prefix-namespaced key/value store
// with per-type TTL policy, statistics, and probabilistic inline cleanup of
// expired entries. Storage failures degrade to cache misses; the cache is
// never a source of user-visible errors.
type Cache struct {
	driver      Driver
	enabled     bool
	prefix      string
	defaultTTL  time.Duration
	cleanupProb float64
	types       map[string]TypePolicy
	stats       *Stats
	clock       func() time.Time
	rand        func() float64
	log         *zap.Logger
}

// New constructs an application cache over the supplied default driver.
func New(driver Driver, cfg Config) (*Cache, error) {
	if driver == nil {
		return nil, errors.New("cache: driver is required")
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	prob := cfg.CleanupProbability
	if prob < 0 {
		prob = 0
	}
	if prob == 0 {
		prob = DefaultCleanupProbability
	}
	if prob > 1 {
		prob = 1
	}

	stats := cfg.Stats
	if stats == nil {
		stats = NewStats(nil)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	random := cfg.Rand
	if random == nil {
		random = rand.Float64
	}

	log := cfg.Logger
	if log == nil {
		log = logger.WithModule("cache")
	}

	return &Cache{
		driver:      driver,
		enabled:     cfg.Enabled,
		prefix:      cfg.Prefix,
		defaultTTL:  ttl,
		cleanupProb: prob,
		types:       cfg.Types,
		stats:       stats,
		clock:       clock,
		rand:        random,
		log:         log,
	}, nil
}

// Get returns the live value for key, searching the default driver first and
// then any per-type driver overrides. Expired or absent entries and storage
// errors all report a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || !c.enabled {
		return nil, false
	}
	c.maybeCleanup(ctx)

	now := c.clock()
	for _, driver := range c.drivers() {
		entry, found, err := driver.Get(ctx, c.namespaced(key))
		if err != nil {
			c.log.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
			continue
		}
		if found && !entry.Expired(now) {
			c.stats.hit()
			return entry.Value, true
		}
	}

	c.stats.miss()
	return nil, false
}

// Put stores value under key. A non-positive ttl resolves through the type
// policy, then the cache default.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration, entryType string) error {
	if c == nil || !c.enabled {
		return nil
	}
	c.maybeCleanup(ctx)

	now := c.clock()
	entry := Entry{
		Key:       c.namespaced(key),
		Value:     value,
		Type:      entryType,
		CreatedAt: now,
		ExpiresAt: now.Add(c.resolveTTL(ttl, entryType)),
	}

	if err := c.driverFor(entryType).Set(ctx, entry); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}

	c.stats.write()
	return nil
}

// Remember returns the cached value for key, or invokes producer, stores its
// result, and returns it. Producer errors propagate and nothing is stored.
// Concurrent callers may both invoke the producer; last write wins.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, entryType string, producer func() ([]byte, error)) ([]byte, error) {
	if c != nil && c.enabled {
		if cached, ok := c.lookup(ctx, key, entryType); ok {
			return cached, nil
		}
	}

	value, err := producer()
	if err != nil {
		return nil, err
	}

	if c != nil && c.enabled {
		// a failed write falls back to uncached behaviour
		_ = c.Put(ctx, key, value, ttl, entryType)
	}

	return value, nil
}

// lookup is Get restricted to the driver configured for entryType.
func (c *Cache) lookup(ctx context.Context, key, entryType string) ([]byte, bool) {
	c.maybeCleanup(ctx)

	entry, found, err := c.driverFor(entryType).Get(ctx, c.namespaced(key))
	if err != nil {
		c.log.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		c.stats.miss()
		return nil, false
	}

	if !found || entry.Expired(c.clock()) {
		c.stats.miss()
		return nil, false
	}

	c.stats.hit()
	return entry.Value, true
}

// Forget removes key from every configured driver and reports whether any
// entry was removed.
func (c *Cache) Forget(ctx context.Context, key string) bool {
	if c == nil || !c.enabled {
		return false
	}

	var removed int64
	for _, driver := range c.drivers() {
		count, err := driver.Delete(ctx, c.namespaced(key))
		if err != nil {
			c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed += count
	}
	return removed > 0
}

// ClearByType deletes every entry tagged with entryType and returns how many
// were removed. Used for cache-aside invalidation after writes.
func (c *Cache) ClearByType(ctx context.Context, entryType string) int64 {
	if c == nil || !c.enabled {
		return 0
	}

	removed, err := c.driverFor(entryType).DeleteByType(ctx, entryType)
	if err != nil {
		c.log.Warn("cache clear-by-type failed", zap.String("type", entryType), zap.Error(err))
		return 0
	}

	c.stats.evict(removed)
	return removed
}

// Flush removes every entry from every configured driver.
func (c *Cache) Flush(ctx context.Context) int64 {
	if c == nil {
		return 0
	}

	var removed int64
	for _, driver := range c.drivers() {
		count, err := driver.Flush(ctx)
		if err != nil {
			c.log.Warn("cache flush failed", zap.Error(err))
			continue
		}
		removed += count
	}

	c.stats.evict(removed)
	return removed
}

// Stats exposes the cache counters.
func (c *Cache) Stats() *Stats {
	return c.stats
}

// maybeCleanup runs the expired-entry sweep on a random subset of cache
// operations. The sweep is inline and idempotent; there is no background
// scheduler.
func (c *Cache) maybeCleanup(ctx context.Context) {
	if c.cleanupProb <= 0 || c.rand() >= c.cleanupProb {
		return
	}

	now := c.clock()
	var removed int64
	for _, driver := range c.drivers() {
		count, err := driver.DeleteExpired(ctx, now)
		if err != nil {
			c.log.Warn("cache cleanup sweep failed", zap.Error(err))
			continue
		}
		removed += count
	}

	c.stats.evict(removed)
	if removed > 0 {
		c.log.Debug("cache cleanup sweep", zap.Int64("removed", removed))
	}
}

func (c *Cache) resolveTTL(ttl time.Duration, entryType string) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if policy, ok := c.types[entryType]; ok && policy.TTL > 0 {
		return policy.TTL
	}
	return c.defaultTTL
}

func (c *Cache) driverFor(entryType string) Driver {
	if policy, ok := c.types[entryType]; ok && policy.Driver != nil {
		return policy.Driver
	}
	return c.driver
}

// drivers returns the default driver plus every distinct per-type override.
func (c *Cache) drivers() []Driver {
	result := []Driver{c.driver}
	for _, policy := range c.types {
		if policy.Driver == nil || policy.Driver == c.driver {
			continue
		}
		duplicate := false
		for _, existing := range result {
			if existing == policy.Driver {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, policy.Driver)
		}
	}
	return result
}

func (c *Cache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// RememberJSON caches the JSON encoding of producer's result under key and
// decodes it on hits.
func RememberJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, entryType string, producer func() (T, error)) (T, error) {
	var zero T

	payload, err := c.Remember(ctx, key, ttl, entryType, func() ([]byte, error) {
		value, err := producer()
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}

	var decoded T
	if err := json.Unmarshal(payload, &decoded); err != nil {
		// a corrupt cached payload falls back to the producer
		c.Forget(ctx, key)
		value, prodErr := producer()
		if prodErr != nil {
			return zero, prodErr
		}
		return value, nil
	}

	return decoded, nil
}
