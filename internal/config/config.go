// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"STAGECMS_DB_PATH" envDefault:"./data/stagecms.db"`
	ServerHost string `env:"STAGECMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"STAGECMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"STAGECMS_ENV" envDefault:"development"`
	LogLevel   string `env:"STAGECMS_LOG_LEVEL" envDefault:"info"`

	// Preview sync configuration
	PollInterval time.Duration `env:"STAGECMS_PREVIEW_POLL_INTERVAL" envDefault:"1s"` // URL token poll cadence
	RedisURL     string        `env:"STAGECMS_REDIS_URL"`                             // Optional Redis for cache + cross-process preview bridge

	// Cache configuration
	CachePrefix string `env:"STAGECMS_CACHE_PREFIX" envDefault:"stagecms:"` // Redis key prefix
	CacheTTL    int    `env:"STAGECMS_CACHE_TTL" envDefault:"300"`          // Published-page cache TTL in seconds

	// API write rate limiting (per client IP)
	RateLimitRPS   float64 `env:"STAGECMS_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"STAGECMS_RATE_LIMIT_BURST" envDefault:"10"`

	// Audit log retention
	EventRetentionDays int `env:"STAGECMS_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the published-page cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.PollInterval < 100*time.Millisecond {
		return nil, fmt.Errorf("STAGECMS_PREVIEW_POLL_INTERVAL must be at least 100ms, got %s", cfg.PollInterval)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("rate limit settings must be positive, got rps=%v burst=%d",
			cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.EventRetentionDays < 1 {
		return nil, fmt.Errorf("STAGECMS_EVENT_RETENTION_DAYS must be at least 1, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}
