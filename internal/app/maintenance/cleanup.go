package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

const (
	defaultEventRetentionDays = 90
	defaultSessionSpec        = "@hourly"
	defaultEventSpec          = "@daily"
	defaultCacheSpec          = "@daily"
)

// SessionPurger removes expired admin sessions. Implemented by auth.Service.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance: purging expired sessions,
// pruning old auth events, and sweeping expired cache entries out of the
// persistent drivers.
type Cleaner struct {
	db       *gorm.DB
	sessions SessionPurger
	sweepers []cache.Driver
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	retention int

	sessionSchedule string
	eventSchedule   string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithEventRetentionDays adjusts how long auth events are retained.
func WithEventRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithCacheSweepers registers persistent cache drivers whose expired entries
// are removed on schedule. The in-memory driver does not need this.
func WithCacheSweepers(drivers ...cache.Driver) Option {
	return func(cleaner *Cleaner) {
		for _, driver := range drivers {
			if driver != nil {
				cleaner.sweepers = append(cleaner.sweepers, driver)
			}
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithEventSchedule overrides the cron specification for event pruning.
func WithEventSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.eventSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache sweeping.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding job being skipped.
func NewCleaner(db *gorm.DB, sessions SessionPurger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		sessions:        sessions,
		now:             time.Now,
		retention:       defaultEventRetentionDays,
		sessionSchedule: defaultSessionSpec,
		eventSchedule:   defaultEventSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			if _, err := c.sessions.PurgeExpiredSessions(context.Background()); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.eventSchedule, func() {
			if _, err := c.pruneEvents(context.Background()); err != nil {
				c.log.Warn("auth event cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if len(c.sweepers) > 0 {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.sweepCaches(context.Background()); err != nil {
				c.log.Warn("cache sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used in tests and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.PurgeExpiredSessions(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil && c.retention > 0 {
		if _, err := c.pruneEvents(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if len(c.sweepers) > 0 {
		if _, err := c.sweepCaches(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// pruneEvents removes auth events older than the retention window.
func (c *Cleaner) pruneEvents(ctx context.Context) (int64, error) {
	cutoff := c.now().AddDate(0, 0, -c.retention)
	result := c.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuthEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("maintenance: prune auth events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// sweepCaches drops expired entries from every registered driver.
func (c *Cleaner) sweepCaches(ctx context.Context) (int64, error) {
	now := c.now()

	var removed int64
	var errs error
	for _, driver := range c.sweepers {
		count, err := driver.DeleteExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed += count
	}
	return removed, errs
}
