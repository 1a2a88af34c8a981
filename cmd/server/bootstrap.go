package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/api"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/app"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/auth"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/database"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/middleware"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/security"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/services"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

// runtime bundles every service the server needs, wired once at startup.
type runtime struct {
	DB           *gorm.DB
	Cache        *cache.Cache
	Sweepers     []cache.Driver
	Auth         *auth.Service
	Recorder     *security.Recorder
	Testimonials *services.TestimonialService
	Contact      *services.ContactService
	RateStore    middleware.RateStore

	sessionTTLSeconds int
}

func buildRuntime(cfg *app.Config) (*runtime, error) {
	db, err := initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	appCache, sweepers, counter, err := buildCache(db, cfg.Cache)
	if err != nil {
		return nil, err
	}

	recorder := security.NewRecorder(db)

	var limiter auth.LoginLimiter
	if cfg.Auth.RateLimit.Enabled {
		limiter = auth.NewWindowLimiter(counter, cfg.Auth.RateLimit.Attempts, cfg.Auth.RateLimit.Window)
	}

	authSvc, err := auth.NewService(db, limiter, recorder, auth.Config{
		MaxLoginAttempts: cfg.Auth.LockoutThreshold,
		LockoutDuration:  cfg.Auth.LockoutDuration,
		SessionTTL:       cfg.Auth.SessionTTL,
		TokenLength:      cfg.Auth.TokenLength,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	testimonials, err := services.NewTestimonialService(db, appCache)
	if err != nil {
		return nil, fmt.Errorf("initialise testimonial service: %w", err)
	}

	contact, err := services.NewContactService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise contact service: %w", err)
	}

	return &runtime{
		DB:                db,
		Cache:             appCache,
		Sweepers:          sweepers,
		Auth:              authSvc,
		Recorder:          recorder,
		Testimonials:      testimonials,
		Contact:           contact,
		RateStore:         middleware.NewCounterRateStore(counter),
		sessionTTLSeconds: int(cfg.Auth.SessionTTL.Seconds()),
	}, nil
}

// Dependencies adapts the runtime for the router.
func (r *runtime) Dependencies() api.Dependencies {
	return api.Dependencies{
		DB:           r.DB,
		Cache:        r.Cache,
		Auth:         r.Auth,
		Recorder:     r.Recorder,
		Testimonials: r.Testimonials,
		Contact:      r.Contact,
	}
}

// RouterOptions adapts the server section for the router.
func (r *runtime) RouterOptions(cfg *app.Config) api.Options {
	return api.Options{
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		RateLimitRequests:   cfg.Server.RateLimit.Requests,
		RateLimitWindow:     cfg.Server.RateLimit.Window,
		RateStore:           r.RateStore,
		SubmitLimitRequests: cfg.Server.SubmitLimit.Requests,
		SubmitLimitWindow:   cfg.Server.SubmitLimit.Window,
		SessionCookieMaxAge: r.sessionTTLSeconds,
		SecureCookies:       cfg.Server.SecureCookies,
	}
}

// Close releases the database handle.
func (r *runtime) Close(log *zap.Logger) {
	if r == nil || r.DB == nil {
		return
	}

	sqlDB, err := r.DB.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

// buildCache assembles the application cache from configuration: the default
// driver, per-type policies, and the counter used for rate limiting. The
// returned sweepers are the persistent drivers needing scheduled cleanup.
func buildCache(db *gorm.DB, cfg app.CacheConfig) (*cache.Cache, []cache.Driver, cache.Counter, error) {
	drivers := map[string]cache.Driver{}

	resolve := func(name string) (cache.Driver, error) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			name = "memory"
		}
		if driver, ok := drivers[name]; ok {
			return driver, nil
		}

		var driver cache.Driver
		switch name {
		case "memory":
			driver = cache.NewMemoryDriver()
		case "file":
			fileDriver, err := cache.NewFileDriver(cfg.Directory)
			if err != nil {
				return nil, fmt.Errorf("cache: file driver: %w", err)
			}
			driver = fileDriver
		case "database":
			driver = cache.NewDatabaseDriver(db)
		default:
			return nil, fmt.Errorf("cache: unsupported driver %q", name)
		}

		drivers[name] = driver
		return driver, nil
	}

	defaultDriver, err := resolve(cfg.Driver)
	if err != nil {
		return nil, nil, nil, err
	}

	types := make(map[string]cache.TypePolicy, len(cfg.Types))
	for name, policy := range cfg.Types {
		typePolicy := cache.TypePolicy{TTL: policy.TTL}
		if policy.Driver != "" {
			driver, err := resolve(policy.Driver)
			if err != nil {
				return nil, nil, nil, err
			}
			typePolicy.Driver = driver
		}
		types[name] = typePolicy
	}

	appCache, err := cache.New(defaultDriver, cache.Config{
		Enabled:            cfg.Enabled,
		Prefix:             cfg.Prefix,
		DefaultTTL:         cfg.DefaultTTL,
		CleanupProbability: cfg.CleanupProbability,
		Types:              types,
		Stats:              cache.NewStats(cache.MetricsSink{}),
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var sweepers []cache.Driver
	for name, driver := range drivers {
		if name == "memory" {
			continue
		}
		sweepers = append(sweepers, driver)
	}

	// Login rate limiting shares the database cache table when available so
	// the window survives restarts; otherwise it stays process-local.
	var counter cache.Counter
	if dbDriver, ok := drivers["database"]; ok {
		counter = dbDriver.(*cache.DatabaseDriver)
	} else {
		counter = cache.NewMemoryCounter()
	}

	return appCache, sweepers, counter, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, database.SeedConfig{
		AdminUsername: strings.TrimSpace(cfg.Admin.Username),
		AdminEmail:    strings.TrimSpace(cfg.Admin.Email),
		AdminPassword: cfg.Admin.Password,
	}); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver errors at open.
	}

	return dbCfg
}
