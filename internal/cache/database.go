package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
)

// DatabaseDriver implements the cache Driver interface on top of the primary
// SQL database, using a single cache_entries table keyed by cache key.
type DatabaseDriver struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewDatabaseDriver constructs a database-backed driver.
func NewDatabaseDriver(db *gorm.DB) *DatabaseDriver {
	if db == nil {
		return nil
	}
	return &DatabaseDriver{db: db, clock: time.Now}
}

// WithClock overrides the time source, primarily for tests.
func (d *DatabaseDriver) WithClock(clock func() time.Time) *DatabaseDriver {
	if clock != nil {
		d.clock = clock
	}
	return d
}

// Get retrieves a value by key, respecting expiry.
func (d *DatabaseDriver) Get(ctx context.Context, key string) (Entry, bool, error) {
	if d == nil {
		return Entry{}, false, errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)

	var row models.CacheEntry
	err := d.db.WithContext(ctx).Take(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	entry := Entry{
		Key:       row.Key,
		Value:     row.Value,
		Type:      row.Type,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}

	if entry.Expired(d.clock()) {
		_, _ = d.Delete(ctx, key)
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set upserts the entry for its key.
func (d *DatabaseDriver) Set(ctx context.Context, entry Entry) error {
	if d == nil {
		return errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)

	row := models.CacheEntry{
		Key:       entry.Key,
		Value:     entry.Value,
		Type:      entry.Type,
		ExpiresAt: entry.ExpiresAt,
		CreatedAt: entry.CreatedAt,
	}

	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "type", "expires_at", "updated_at"}),
		}).Create(&row).Error
}

// Delete removes keys from the table, returning the number of rows removed.
func (d *DatabaseDriver) Delete(ctx context.Context, keys ...string) (int64, error) {
	if d == nil {
		return 0, errors.New("cache: database driver not initialised")
	}
	if len(keys) == 0 {
		return 0, nil
	}
	ctx = ensuredContext(ctx)

	result := d.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

// DeleteByType removes every entry tagged with entryType.
func (d *DatabaseDriver) DeleteByType(ctx context.Context, entryType string) (int64, error) {
	if d == nil {
		return 0, errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)

	result := d.db.WithContext(ctx).Where("type = ?", entryType).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

// DeleteExpired removes rows past their expiry.
func (d *DatabaseDriver) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if d == nil {
		return 0, errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)

	result := d.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

// Flush clears the whole cache table.
func (d *DatabaseDriver) Flush(ctx context.Context) (int64, error) {
	if d == nil {
		return 0, errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)

	result := d.db.WithContext(ctx).Where("1 = 1").Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

// IncrementWithTTL atomically increments a fixed-window counter stored in the
// cache table. It backs the database-driven rate limit stores.
func (d *DatabaseDriver) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if d == nil {
		return 0, 0, errors.New("cache: database driver not initialised")
	}
	ctx = ensuredContext(ctx)
	if window <= 0 {
		window = time.Minute
	}

	now := d.clock()
	expiry := now.Add(window)

	var count int64

	// The transaction serialises concurrent increments; SQLite has no
	// SELECT ... FOR UPDATE so no row lock is taken explicitly.
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.CacheEntry
		err := tx.Take(&row, "key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count = 1
			row = models.CacheEntry{
				Key:       key,
				Value:     []byte(strconv.FormatInt(count, 10)),
				Type:      "counter",
				ExpiresAt: expiry,
			}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}

		if row.ExpiresAt.Before(now) {
			count = 1
			row.Value = []byte("1")
			row.ExpiresAt = expiry
		} else {
			current, _ := strconv.ParseInt(string(row.Value), 10, 64)
			count = current + 1
			row.Value = []byte(strconv.FormatInt(count, 10))
			// the window is fixed from the first attempt, not extended
			expiry = row.ExpiresAt
		}

		return tx.Save(&row).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return count, expiry.Sub(now), nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
