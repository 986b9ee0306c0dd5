// Package config loads connection settings for sqlwrap executors.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zoobzio/sqlwrap"
)

// ErrMissingDSN is returned when no data source name is configured.
var ErrMissingDSN = errors.New("config: dsn is required")

// Config holds connection settings.
type Config struct {
	Driver       string
	DSN          string
	Dialect      sqlwrap.Dialect
	MaxOpenConns int
}

// Load reads sqlwrap.yaml from the given directories (the working directory
// when none are given), then SQLWRAP_* environment variables. A .env file is
// loaded first when present, and .env.local overrides it.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	v := viper.New()
	v.SetConfigName("sqlwrap")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SQLWRAP")
	v.AutomaticEnv()

	v.SetDefault("driver", "mysql")
	v.SetDefault("max_open_conns", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading sqlwrap.yaml: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Driver:       v.GetString("driver"),
		DSN:          v.GetString("dsn"),
		MaxOpenConns: v.GetInt("max_open_conns"),
	}

	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	dialect := v.GetString("dialect")
	if dialect == "" {
		dialect = cfg.Driver
	}
	d, err := sqlwrap.ParseDialect(dialect)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Dialect = d

	return cfg, nil
}

// Options returns the wrapper options implied by the configuration.
func (c *Config) Options() []sqlwrap.Option {
	return []sqlwrap.Option{sqlwrap.WithDialect(c.Dialect)}
}
