package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the CustomerPulse server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AnalyticsConfig struct {
	// ModelVersion selects the rule configuration; must be registered in the
	// engine package.
	ModelVersion string
	// MaxConcurrency bounds the batch worker pool. Zero means "match the
	// database pool's connection limit".
	MaxConcurrency int
	// RetryMaxElapsed caps the exponential backoff applied to transient
	// data-store failures.
	RetryMaxElapsed time.Duration
	// ResultCacheTTL controls how long read endpoints may serve cached
	// insight/prediction listings.
	ResultCacheTTL time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PULSECRM_PORT", 8080),
			Env:  envString("PULSECRM_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Analytics: AnalyticsConfig{
			ModelVersion:    envString("ANALYTICS_MODEL_VERSION", "v1.0"),
			MaxConcurrency:  envInt("ANALYTICS_MAX_CONCURRENCY", 0),
			RetryMaxElapsed: envDuration("ANALYTICS_RETRY_MAX_ELAPSED", 10*time.Second),
			ResultCacheTTL:  envDuration("ANALYTICS_RESULT_CACHE_TTL", 5*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Analytics.ModelVersion == "" {
		return fmt.Errorf("ANALYTICS_MODEL_VERSION must not be empty")
	}
	if c.Analytics.MaxConcurrency < 0 {
		return fmt.Errorf("ANALYTICS_MAX_CONCURRENCY must not be negative, got %d", c.Analytics.MaxConcurrency)
	}
	if c.Analytics.RetryMaxElapsed <= 0 {
		return fmt.Errorf("ANALYTICS_RETRY_MAX_ELAPSED must be positive, got %s", c.Analytics.RetryMaxElapsed)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
