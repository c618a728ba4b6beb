package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestLoad_Defaults
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MARKETBEAT_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AAPL", cfg.Heartbeat.Symbol)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseBackoff)
	assert.Equal(t, time.Minute, cfg.Retry.RateLimitCooldown)
	assert.Zero(t, cfg.Retry.MaxRateLimitCooldowns)
	assert.Equal(t, "mock", cfg.Provider.Kind)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.Postgres.Enabled)
}

// go test -v --run TestLoad_FileAndEnv
func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
heartbeat:
  symbol: MSFT
  interval: 30s
retry:
  max_attempts: 5
provider:
  kind: bybit
  bybit:
    base_url: https://api-testnet.bybit.com
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("MARKETBEAT_CONFIG_DIR", dir)
	t.Setenv("RETRY_RATE_LIMIT_COOLDOWN", "90s")
	t.Setenv("HEARTBEAT_SYMBOL", "NVDA")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NVDA", cfg.Heartbeat.Symbol)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Retry.RateLimitCooldown)
	assert.Equal(t, "bybit", cfg.Provider.Kind)
	assert.Equal(t, "https://api-testnet.bybit.com", cfg.Provider.Bybit.BaseURL)
	assert.Equal(t, "spot", cfg.Provider.Bybit.Category)
}

// go test -v --run TestLoad_Invalid
func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("retry:\n  max_attempts: 0\n"), 0o644))
	t.Setenv("MARKETBEAT_CONFIG_DIR", dir)

	_, err := Load()
	require.ErrorContains(t, err, "max_attempts")
}

// go test -v --run TestValidate
func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Heartbeat: HeartbeatConfig{Symbol: "AAPL", Interval: time.Second},
			Retry:     RetryConfig{MaxAttempts: 3, BaseBackoff: time.Second, RateLimitCooldown: time.Minute},
			Provider:  ProviderConfig{Kind: "mock"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"empty symbol", func(c *Config) { c.Heartbeat.Symbol = " " }, false},
		{"zero interval", func(c *Config) { c.Heartbeat.Interval = 0 }, false},
		{"zero backoff", func(c *Config) { c.Retry.BaseBackoff = 0 }, false},
		{"zero cooldown", func(c *Config) { c.Retry.RateLimitCooldown = 0 }, false},
		{"negative cooldown cap", func(c *Config) { c.Retry.MaxRateLimitCooldowns = -1 }, false},
		{"unknown provider", func(c *Config) { c.Provider.Kind = "yahoo" }, false},
		{"bybit without url", func(c *Config) { c.Provider.Kind = "bybit" }, false},
		{"bybit spot", func(c *Config) {
			c.Provider.Kind = "bybit"
			c.Provider.Bybit = BybitConfig{BaseURL: "https://api.bybit.com", Category: "spot"}
		}, true},
		{"bybit bad category", func(c *Config) {
			c.Provider.Kind = "bybit"
			c.Provider.Bybit = BybitConfig{BaseURL: "https://api.bybit.com", Category: "futures"}
		}, false},
		{"mock rates too high", func(c *Config) { c.Provider.Mock.NetworkFailureRate = 0.7; c.Provider.Mock.RateLimitRate = 0.7 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// go test -v --run TestPostgresDSN
func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "marketbeat",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=yourpw dbname=marketbeat sslmode=disable TimeZone=UTC",
		cfg.DSN("dev"))
	assert.Contains(t, cfg.AdminDSN(), "dbname=postgres")

	params := map[string]string{
		ssmDBHost:     "db.internal",
		ssmDBUser:     "svc",
		ssmDBPassword: "secret",
	}
	lookup := func(_ context.Context, name string, decrypt bool) (string, error) {
		assert.True(t, decrypt)
		return params[name], nil
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=secret dbname=marketbeat sslmode=disable TimeZone=UTC",
		cfg.dsnFrom(t.Context(), lookup))

	failing := func(context.Context, string, bool) (string, error) { return "", errors.New("no creds") }
	assert.Equal(t, cfg.DSN("dev"), cfg.dsnFrom(t.Context(), failing), "falls back to file values")
}
