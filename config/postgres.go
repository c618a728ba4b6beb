package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSM parameter names holding production database credentials.
const (
	ssmDBHost     = "MARKETBEAT_DB_HOST"
	ssmDBUser     = "MARKETBEAT_DB_USER"
	ssmDBPassword = "MARKETBEAT_DB_PASSWORD"
)

// PostgresConfig defines the configuration for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// ParameterStore resolves a named secret. The prod implementation is AWS SSM.
type ParameterStore func(ctx context.Context, name string, decrypt bool) (string, error)

// DSN builds the connection string. In prod, host and credentials come from SSM.
func (cfg *PostgresConfig) DSN(env string) string {
	if env == "prod" {
		return cfg.dsnFrom(context.Background(), SSMParameter)
	}
	return cfg.build(cfg.Host, cfg.User, cfg.Password, cfg.DBName)
}

func (cfg *PostgresConfig) dsnFrom(ctx context.Context, lookup ParameterStore) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	host := lookupOr(ctx, lookup, ssmDBHost, cfg.Host)
	user := lookupOr(ctx, lookup, ssmDBUser, cfg.User)
	password := lookupOr(ctx, lookup, ssmDBPassword, cfg.Password)
	return cfg.build(host, user, password, cfg.DBName)
}

// AdminDSN points at the server's default "postgres" database, used to create ours.
func (cfg *PostgresConfig) AdminDSN() string {
	return cfg.build(cfg.Host, cfg.User, cfg.Password, "postgres")
}

func (cfg *PostgresConfig) build(host, user, password, dbname string) string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, dbname, cfg.SSLMode,
	)
	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}
	return dsn
}

func lookupOr(ctx context.Context, lookup ParameterStore, name, fallback string) string {
	v, err := lookup(ctx, name, true)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

// SSMParameter reads a parameter from AWS Systems Manager Parameter Store.
func SSMParameter(ctx context.Context, name string, decrypt bool) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", nil
	}

	return *result.Parameter.Value, nil
}
