// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSessionSecretLength is the minimum acceptable secret length in bytes.
const MinSessionSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// BackendURL is the base URL of the oBlog REST backend.
	BackendURL string `env:"OBLOG_BACKEND_URL,required"`
	// BackendTimeout bounds every backend call in seconds.
	BackendTimeout int `env:"OBLOG_BACKEND_TIMEOUT" envDefault:"15"`

	ServerHost string `env:"OBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OBLOG_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OBLOG_ENV" envDefault:"development"`
	LogLevel   string `env:"OBLOG_LOG_LEVEL" envDefault:"info"`

	// SessionDBPath is the SQLite file backing visitor sessions.
	SessionDBPath string `env:"OBLOG_SESSION_DB_PATH" envDefault:"./data/sessions.db"`
	// SessionSecret authenticates CSRF state. Must be at least 32 bytes.
	SessionSecret string `env:"OBLOG_SESSION_SECRET,required"`

	// AdminUserID is the backend user whose token may open the admin console.
	AdminUserID int64 `env:"OBLOG_ADMIN_USER_ID" envDefault:"1"`
	// AdminLogoutRedirect makes admin logout navigate to the admin login
	// page. User logout always redirects; the original client only did so
	// for the user slot, so the admin behavior stays configurable.
	AdminLogoutRedirect bool `env:"OBLOG_ADMIN_LOGOUT_REDIRECT" envDefault:"false"`

	// Cache configuration
	RedisURL     string `env:"OBLOG_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"OBLOG_CACHE_PREFIX" envDefault:"oblog:"`  // Redis key prefix
	CacheTTL     int    `env:"OBLOG_CACHE_TTL" envDefault:"300"`        // Collection cache TTL in seconds
	CacheMaxSize int    `env:"OBLOG_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries
	// CacheRefreshSchedule is the cron expression for background refresh of
	// the lookup collections (categories, series, authors).
	CacheRefreshSchedule string `env:"OBLOG_CACHE_REFRESH_SCHEDULE" envDefault:"*/5 * * * *"`

	// Upload pipeline
	UploadMaxDimension int `env:"OBLOG_UPLOAD_MAX_DIMENSION" envDefault:"2048"` // Longest image edge in pixels
	UploadMaxBytes     int `env:"OBLOG_UPLOAD_MAX_BYTES" envDefault:"10485760"` // 10MB request cap

	// Login rate limiting
	LoginRateLimit float64 `env:"OBLOG_LOGIN_RATE_LIMIT" envDefault:"0.5"` // Requests per second per IP
	LoginBurst     int     `env:"OBLOG_LOGIN_BURST" envDefault:"5"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// BackendTimeoutDuration returns the backend timeout as a duration.
func (c Config) BackendTimeoutDuration() time.Duration {
	return time.Duration(c.BackendTimeout) * time.Second
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("OBLOG_BACKEND_URL must be an absolute URL, got %q", cfg.BackendURL)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("OBLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.BackendTimeout < 1 {
		return nil, fmt.Errorf("OBLOG_BACKEND_TIMEOUT must be at least 1 second, got %d", cfg.BackendTimeout)
	}

	if cfg.AdminUserID < 1 {
		return nil, fmt.Errorf("OBLOG_ADMIN_USER_ID must be positive, got %d", cfg.AdminUserID)
	}

	return cfg, nil
}
