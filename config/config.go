package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketbeat/pkg/bybit"

	"github.com/spf13/viper"
)

type Config struct {
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

type HeartbeatConfig struct {
	Symbol   string        `mapstructure:"symbol"`
	Interval time.Duration `mapstructure:"interval"`
}

type RetryConfig struct {
	MaxAttempts           int           `mapstructure:"max_attempts"`
	BaseBackoff           time.Duration `mapstructure:"base_backoff"`
	RateLimitCooldown     time.Duration `mapstructure:"rate_limit_cooldown"`
	MaxRateLimitCooldowns int           `mapstructure:"max_rate_limit_cooldowns"` // 0 = retry rate limits forever
}

type ProviderConfig struct {
	Kind  string      `mapstructure:"kind"` // "mock" or "bybit"
	Mock  MockConfig  `mapstructure:"mock"`
	Bybit BybitConfig `mapstructure:"bybit"`
}

type MockConfig struct {
	Seed               uint64  `mapstructure:"seed"`
	NetworkFailureRate float64 `mapstructure:"network_failure_rate"`
	RateLimitRate      float64 `mapstructure:"rate_limit_rate"`
}

type BybitConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Category string        `mapstructure:"category"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml when one is found and overrides with environment variables.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir := os.Getenv("MARKETBEAT_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., HEARTBEAT_SYMBOL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

// SetDefaults registers a default for every key so the service runs without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("heartbeat.symbol", "AAPL")
	v.SetDefault("heartbeat.interval", 10*time.Second)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_backoff", 2*time.Second)
	v.SetDefault("retry.rate_limit_cooldown", 60*time.Second)
	v.SetDefault("retry.max_rate_limit_cooldowns", 0)

	v.SetDefault("provider.kind", "mock")
	v.SetDefault("provider.mock.seed", 1)
	v.SetDefault("provider.mock.network_failure_rate", 0.0)
	v.SetDefault("provider.mock.rate_limit_rate", 0.0)
	v.SetDefault("provider.bybit.base_url", bybit.DefaultBaseURL)
	v.SetDefault("provider.bybit.category", string(bybit.CategorySpot))
	v.SetDefault("provider.bybit.timeout", 10*time.Second)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 2*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "marketbeat")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 5)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("postgres.write_timeout", 2*time.Second)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Heartbeat.Symbol) == "":
		return errors.New("heartbeat.symbol is required")
	case c.Heartbeat.Interval <= 0:
		return errors.New("heartbeat.interval must be positive")
	case c.Retry.MaxAttempts < 1:
		return errors.New("retry.max_attempts must be at least 1")
	case c.Retry.BaseBackoff <= 0:
		return errors.New("retry.base_backoff must be positive")
	case c.Retry.RateLimitCooldown <= 0:
		return errors.New("retry.rate_limit_cooldown must be positive")
	case c.Retry.MaxRateLimitCooldowns < 0:
		return errors.New("retry.max_rate_limit_cooldowns must not be negative")
	}

	switch c.Provider.Kind {
	case "mock":
		m := c.Provider.Mock
		if m.NetworkFailureRate < 0 || m.RateLimitRate < 0 || m.NetworkFailureRate+m.RateLimitRate > 1 {
			return errors.New("provider.mock failure rates must be in [0, 1] and sum to at most 1")
		}
	case "bybit":
		if c.Provider.Bybit.BaseURL == "" {
			return errors.New("provider.bybit.base_url is required")
		}
		if _, err := bybit.ParseCategory(c.Provider.Bybit.Category); err != nil {
			return fmt.Errorf("provider.bybit.category: %w", err)
		}
	default:
		return fmt.Errorf("unknown provider.kind %q", c.Provider.Kind)
	}
	return nil
}
