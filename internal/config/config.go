// Package config provides configuration management for the armory gateway.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration so the gateway starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path (default: stdout)
//
// Upstream API:
//   - BLIZZARD_CLIENT_ID: OAuth2 client id (required)
//   - BLIZZARD_CLIENT_SECRET: OAuth2 client secret (required)
//   - AUTH_URL: OAuth2 token endpoint (default: https://oauth.battle.net/token)
//   - UPSTREAM_API_BASE: overrides the per-region upstream base URL
//   - DEFAULT_REGION: data API region (default: us)
//   - DEFAULT_LOCALE: data API locale (default: en_US)
//
// Caching:
//   - CACHE_TTL: upstream response cache TTL (default: 300s)
//   - CACHE_BACKEND: "local" or "redis" (default: local)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//
// Aggregation:
//   - FANOUT_CONCURRENCY: max concurrent per-player fetches (default: 5)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the armory gateway.
// All string fields correspond to environment variables that can be set
// to override the default values.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Upstream credentials and endpoints
	ClientID        string // OAuth2 client id for the upstream API
	ClientSecret    string // OAuth2 client secret for the upstream API
	AuthURL         string // OAuth2 token endpoint
	UpstreamAPIBase string // Optional override for the per-region data API base URL
	DefaultRegion   string // Default region for pass-through routes
	DefaultLocale   string // Default locale for pass-through routes

	// Response cache configuration
	CacheTTL      string // Upstream response cache TTL (e.g. "300s", "5m")
	CacheBackend  string // Cache backend: "local" or "redis"
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)

	// Aggregation configuration
	FanoutConcurrency string // Max concurrent per-player fetches during aggregation
}

// Load creates a new Config instance with values loaded from environment
// variables. Call Validate() on the returned Config before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClientID:        getEnv("BLIZZARD_CLIENT_ID", ""),
		ClientSecret:    getEnv("BLIZZARD_CLIENT_SECRET", ""),
		AuthURL:         getEnv("AUTH_URL", "https://oauth.battle.net/token"),
		UpstreamAPIBase: getEnv("UPSTREAM_API_BASE", ""),
		DefaultRegion:   getEnv("DEFAULT_REGION", "us"),
		DefaultLocale:   getEnv("DEFAULT_LOCALE", "en_US"),

		CacheTTL:      getEnv("CACHE_TTL", "300s"),
		CacheBackend:  getEnv("CACHE_BACKEND", "local"),
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		FanoutConcurrency: getEnv("FANOUT_CONCURRENCY", "5"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("BLIZZARD_CLIENT_ID environment variable is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("BLIZZARD_CLIENT_SECRET environment variable is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if ttl, err := time.ParseDuration(c.CacheTTL); err != nil || ttl <= 0 {
		return fmt.Errorf("CACHE_TTL must be a positive duration (e.g., '300s', '5m')")
	}

	switch c.CacheBackend {
	case "local", "redis":
		// Valid backends
	default:
		return fmt.Errorf("CACHE_BACKEND must be 'local' or 'redis'")
	}

	if c.CacheBackend == "redis" {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using the redis cache backend")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
	}

	if n, err := strconv.Atoi(c.FanoutConcurrency); err != nil || n < 1 {
		return fmt.Errorf("FANOUT_CONCURRENCY must be a positive number")
	}

	return nil
}

// CacheTTLDuration returns the parsed cache TTL. Validate must have
// been called first.
func (c *Config) CacheTTLDuration() time.Duration {
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 300 * time.Second
	}
	return ttl
}

// FanoutLimit returns the parsed fan-out concurrency limit. Validate
// must have been called first.
func (c *Config) FanoutLimit() int {
	n, err := strconv.Atoi(c.FanoutConcurrency)
	if err != nil || n < 1 {
		return 5
	}
	return n
}
