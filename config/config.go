package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendValkey = "valkey"

	MAX_PAGE_SIZE = 100
)

// Config is read from the environment after LoadEnv has applied any .env file.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Port     int    `envconfig:"PORT" default:"5000"`

	NewsAPIKey     string `envconfig:"NEWS_API_KEY"`
	NewsAPIBaseURL string `envconfig:"NEWS_API_BASE_URL" default:"https://newsapi.org/v2"`
	NewsCountry    string `envconfig:"NEWS_COUNTRY" default:"us"`
	NewsCategory   string `envconfig:"NEWS_CATEGORY"`
	NewsPageSize   int    `envconfig:"NEWS_PAGE_SIZE" default:"10"`

	CacheBackend   string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	CacheSizeBytes int           `envconfig:"CACHE_SIZE_BYTES" default:"33554432"`

	ValkeyAddress  string `envconfig:"VALKEY_INIT_ADDRESS" default:"localhost:6379"`
	ValkeyPassword string `envconfig:"VALKEY_PASSWORD"`
	ValkeyTLS      bool   `envconfig:"VALKEY_TLS" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("[Config] failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.NewsAPIKey == "" {
		slog.Warn("[Config] NEWS_API_KEY not found in environment variables!")
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("[Config] PORT out of range: %d", c.Port))
	}
	if c.NewsPageSize < 1 || c.NewsPageSize > MAX_PAGE_SIZE {
		errs = append(errs, fmt.Errorf("[Config] NEWS_PAGE_SIZE must be between 1 and %d, got %d", MAX_PAGE_SIZE, c.NewsPageSize))
	}
	if c.NewsAPIBaseURL == "" {
		errs = append(errs, errors.New("[Config] NEWS_API_BASE_URL is empty"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("[Config] CACHE_TTL must be positive, got %s", c.CacheTTL))
	}

	switch c.CacheBackend {
	case CacheBackendMemory:
		if c.CacheSizeBytes <= 0 {
			errs = append(errs, fmt.Errorf("[Config] CACHE_SIZE_BYTES must be positive, got %d", c.CacheSizeBytes))
		}
	case CacheBackendValkey:
		if c.ValkeyAddress == "" {
			errs = append(errs, errors.New("[Config] VALKEY_INIT_ADDRESS is required for the valkey cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("[Config] unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	return errors.Join(errs...)
}
