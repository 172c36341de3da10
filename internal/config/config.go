// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/skillswap/internal/domain/scoring"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Store backends.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// Store selects the fact backend: mysql or memory.
	Store string `koanf:"store"`

	// FixturePath is the YAML file served by the memory store.
	FixturePath string `koanf:"fixture_path"`

	// DBDSN wins over the discrete DB settings when set.
	DBDSN      string `koanf:"db_dsn"`
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`

	DBMaxOpenConns          int `koanf:"db_max_open_conns"`
	DBMaxIdleConns          int `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeMinute int `koanf:"db_conn_max_lifetime_min"`

	// QueryTimeoutMS bounds each provider query.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`

	JWTSecret   string `koanf:"jwt_secret"`
	JWTTTLHours int    `koanf:"jwt_ttl_hours"`

	// PrefetchLimit is the number of candidate rows fetched per recommendation.
	PrefetchLimit int `koanf:"prefetch_limit"`

	DefaultRecommendationLimit int `koanf:"default_recommendation_limit"`
	MaxRecommendationLimit     int `koanf:"max_recommendation_limit"`
	DefaultTrendingLimit       int `koanf:"default_trending_limit"`
	MaxTrendingLimit           int `koanf:"max_trending_limit"`

	TrendingWindowDays int `koanf:"trending_window_days"`
	// TrendingAlignSec truncates the window end so concurrent requests share a query.
	TrendingAlignSec int `koanf:"trending_align_sec"`

	// CORSAllowedOrigins is a comma separated list.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	RateLimitRequests  int `koanf:"rate_limit_requests"`
	RateLimitWindowSec int `koanf:"rate_limit_window_sec"`

	BreakerMaxRequests  int     `koanf:"breaker_max_requests"`
	BreakerIntervalSec  int     `koanf:"breaker_interval_sec"`
	BreakerTimeoutSec   int     `koanf:"breaker_timeout_sec"`
	BreakerMinRequests  int     `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio"`

	// Weights tunes the scorer. Only settable from the YAML file.
	Weights scoring.Weights `koanf:"weights"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                   "info",
		LogFormat:                  "text",
		Addr:                       ":3000",
		Store:                      StoreMySQL,
		FixturePath:                "configs/fixtures.yaml",
		DBHost:                     "localhost",
		DBPort:                     3306,
		DBUser:                     "root",
		DBName:                     "skillswap",
		DBMaxOpenConns:             50,
		DBMaxIdleConns:             10,
		DBConnMaxLifetimeMinute:    60,
		QueryTimeoutMS:             5000,
		JWTTTLHours:                7 * 24,
		PrefetchLimit:              20,
		DefaultRecommendationLimit: 5,
		MaxRecommendationLimit:     50,
		DefaultTrendingLimit:       10,
		MaxTrendingLimit:           100,
		TrendingWindowDays:         30,
		TrendingAlignSec:           1,
		CORSAllowedOrigins:         "http://localhost:3000",
		RateLimitRequests:          100,
		RateLimitWindowSec:         15 * 60,
		BreakerMaxRequests:         3,
		BreakerIntervalSec:         60,
		BreakerTimeoutSec:          30,
		BreakerMinRequests:         10,
		BreakerFailureRatio:        0.6,
		Weights:                    scoring.DefaultWeights(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMySQL && c.Store != StoreMemory:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMySQL, StoreMemory, c.Store)
	case c.Store == StoreMemory && c.FixturePath == "":
		return fmt.Errorf("%w: fixture_path is required for the memory store", ErrInvalidConfig)
	case c.Store == StoreMySQL && c.DBDSN == "" && c.DBHost == "":
		return fmt.Errorf("%w: db_dsn or db_host is required for the mysql store", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.PrefetchLimit <= 0:
		return fmt.Errorf("%w: prefetch_limit must be positive", ErrInvalidConfig)
	case c.DefaultRecommendationLimit <= 0 || c.DefaultTrendingLimit <= 0:
		return fmt.Errorf("%w: default limits must be positive", ErrInvalidConfig)
	case c.MaxRecommendationLimit < c.DefaultRecommendationLimit:
		return fmt.Errorf("%w: max_recommendation_limit below default", ErrInvalidConfig)
	case c.MaxTrendingLimit < c.DefaultTrendingLimit:
		return fmt.Errorf("%w: max_trending_limit below default", ErrInvalidConfig)
	case c.TrendingWindowDays <= 0:
		return fmt.Errorf("%w: trending_window_days must be positive", ErrInvalidConfig)
	case c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1:
		return fmt.Errorf("%w: breaker_failure_ratio must be in (0, 1]", ErrInvalidConfig)
	}
	return nil
}

// CORSOrigins splits CORSAllowedOrigins.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// QueryTimeout returns QueryTimeoutMS as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

// ConnMaxLifetime returns DBConnMaxLifetimeMinute as a duration.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMinute) * time.Minute
}

// JWTTTL returns JWTTTLHours as a duration.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// TrendingWindow returns TrendingWindowDays as a duration.
func (c *Config) TrendingWindow() time.Duration {
	return time.Duration(c.TrendingWindowDays) * 24 * time.Hour
}

// TrendingAlign returns TrendingAlignSec as a duration.
func (c *Config) TrendingAlign() time.Duration {
	return time.Duration(c.TrendingAlignSec) * time.Second
}

// RateLimitWindow returns RateLimitWindowSec as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// BreakerInterval returns BreakerIntervalSec as a duration.
func (c *Config) BreakerInterval() time.Duration {
	return time.Duration(c.BreakerIntervalSec) * time.Second
}

// BreakerTimeout returns BreakerTimeoutSec as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSec) * time.Second
}
