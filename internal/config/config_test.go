package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:              "8080",
		LogLevel:          "info",
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		AuthURL:           "https://oauth.battle.net/token",
		DefaultRegion:     "us",
		DefaultLocale:     "en_US",
		CacheTTL:          "300s",
		CacheBackend:      "local",
		RedisAddress:      "localhost:6379",
		RedisDB:           "0",
		FanoutConcurrency: "5",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLIZZARD_CLIENT_ID", "id")
	t.Setenv("BLIZZARD_CLIENT_SECRET", "secret")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://oauth.battle.net/token", cfg.AuthURL)
	assert.Equal(t, "us", cfg.DefaultRegion)
	assert.Equal(t, "en_US", cfg.DefaultLocale)
	assert.Equal(t, "300s", cfg.CacheTTL)
	assert.Equal(t, "local", cfg.CacheBackend)
	assert.Equal(t, "5", cfg.FanoutConcurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BLIZZARD_CLIENT_ID", "id")
	t.Setenv("BLIZZARD_CLIENT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("FANOUT_CONCURRENCY", "10")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTLDuration())
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 10, cfg.FanoutLimit())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing client id", func(c *Config) { c.ClientID = "" }, "BLIZZARD_CLIENT_ID"},
		{"missing client secret", func(c *Config) { c.ClientSecret = "" }, "BLIZZARD_CLIENT_SECRET"},
		{"bad port", func(c *Config) { c.Port = "not-a-port" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"bad ttl", func(c *Config) { c.CacheTTL = "five minutes" }, "CACHE_TTL"},
		{"negative ttl", func(c *Config) { c.CacheTTL = "-1s" }, "CACHE_TTL"},
		{"unknown backend", func(c *Config) { c.CacheBackend = "memcached" }, "CACHE_BACKEND"},
		{"redis without address", func(c *Config) {
			c.CacheBackend = "redis"
			c.RedisAddress = ""
		}, "REDIS_ADDRESS"},
		{"redis db out of range", func(c *Config) {
			c.CacheBackend = "redis"
			c.RedisDB = "16"
		}, "REDIS_DB"},
		{"zero fanout", func(c *Config) { c.FanoutConcurrency = "0" }, "FANOUT_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCacheTTLDuration_FallbackOnUnparsed(t *testing.T) {
	cfg := validConfig()
	cfg.CacheTTL = "garbage"
	assert.Equal(t, 300*time.Second, cfg.CacheTTLDuration())
}

func TestFanoutLimit_FallbackOnUnparsed(t *testing.T) {
	cfg := validConfig()
	cfg.FanoutConcurrency = "garbage"
	assert.Equal(t, 5, cfg.FanoutLimit())
}
