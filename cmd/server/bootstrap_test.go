package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/app"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/database/testutil"
)

func TestBuildCacheResolvesDriversAndPolicies(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	appCache, sweepers, counter, err := buildCache(db, app.CacheConfig{
		Enabled:    true,
		Driver:     "memory",
		Prefix:     "portfolio",
		DefaultTTL: time.Hour,
		Directory:  t.TempDir(),
		Types: map[string]app.CacheTypeConfig{
			"testimonials": {TTL: 10 * time.Minute, Driver: "database"},
			"pages":        {TTL: 5 * time.Minute, Driver: "file"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, appCache)

	// file and database drivers need scheduled sweeps, memory does not
	require.Len(t, sweepers, 2)

	// with a database driver configured, rate limiting shares its table
	_, ok := counter.(*cache.DatabaseDriver)
	require.True(t, ok)

	require.NoError(t, appCache.Put(context.Background(), "k", []byte("v"), 0, "testimonials"))
	value, found := appCache.Get(context.Background(), "k")
	require.True(t, found)
	require.Equal(t, []byte("v"), value)
}

func TestBuildCacheMemoryOnlyUsesLocalCounter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	_, sweepers, counter, err := buildCache(db, app.CacheConfig{
		Enabled: true,
		Driver:  "memory",
	})
	require.NoError(t, err)
	require.Empty(t, sweepers)

	_, ok := counter.(*cache.MemoryCounter)
	require.True(t, ok)
}

func TestBuildCacheRejectsUnknownDriver(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	_, _, _, err := buildCache(db, app.CacheConfig{Enabled: true, Driver: "redis"})
	require.Error(t, err)
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.Postgres = app.DBAuthConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "portfolio",
		Username: "portfolio",
		Password: "secret",
	}

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "portfolio", dbCfg.Name)

	cfg = &app.Config{}
	dbCfg = convertDatabaseConfig(cfg)
	require.Equal(t, "sqlite", dbCfg.Driver)
}
