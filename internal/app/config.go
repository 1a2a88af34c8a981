package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the portfolio backend.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Admin    AdminSeedConfig `mapstructure:"admin"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	LogLevel       string          `mapstructure:"log_level"`
	LogEncoding    string          `mapstructure:"log_encoding"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	SecureCookies  bool            `mapstructure:"secure_cookies"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	SubmitLimit    RateLimitConfig `mapstructure:"submit_rate_limit"`
}

// RateLimitConfig is a fixed-window request budget. Zero requests disables
// the limiter.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig tunes the application cache. Driver selects the default
// backend; per-type overrides may route a type to another backend.
type CacheConfig struct {
	Enabled            bool                       `mapstructure:"enabled"`
	Driver             string                     `mapstructure:"driver"`
	Prefix             string                     `mapstructure:"prefix"`
	DefaultTTL         time.Duration              `mapstructure:"default_ttl"`
	CleanupProbability float64                    `mapstructure:"cleanup_probability"`
	Directory          string                     `mapstructure:"directory"`
	Types              map[string]CacheTypeConfig `mapstructure:"types"`
}

// CacheTypeConfig is a per-type policy override.
type CacheTypeConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Driver string        `mapstructure:"driver"`
}

// AuthConfig captures admin authentication settings.
type AuthConfig struct {
	LockoutThreshold int                  `mapstructure:"lockout_threshold"`
	LockoutDuration  time.Duration        `mapstructure:"lockout_duration"`
	SessionTTL       time.Duration        `mapstructure:"session_ttl"`
	TokenLength      int                  `mapstructure:"token_length"`
	RateLimit        LoginRateLimitConfig `mapstructure:"rate_limit"`
}

// LoginRateLimitConfig budgets login attempts per source address.
type LoginRateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Attempts int           `mapstructure:"attempts"`
	Window   time.Duration `mapstructure:"window"`
}

// AdminSeedConfig bootstraps the first admin account. The password is only
// consulted when no admin exists yet.
type AdminSeedConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")
	v.SetDefault("server.submit_rate_limit.requests", 5)
	v.SetDefault("server.submit_rate_limit.window", "1h")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/portfolio.sqlite")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.prefix", "portfolio")
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.cleanup_probability", 0.02)
	v.SetDefault("cache.directory", "./data/cache")
	v.SetDefault("cache.types.testimonials.ttl", "10m")

	v.SetDefault("auth.lockout_threshold", 5)
	v.SetDefault("auth.lockout_duration", "15m")
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.token_length", 32)
	v.SetDefault("auth.rate_limit.enabled", true)
	v.SetDefault("auth.rate_limit.attempts", 5)
	v.SetDefault("auth.rate_limit.window", "15m")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
