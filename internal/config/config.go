// Package config defines the room relay's configuration and validation.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. It is populated entirely from
// environment variables (see loader.go); there is no file format, since the
// relay's only positional argument is the listen address.
type Config struct {
	Redis    RedisConfig
	Postgres PostgresConfig
	LogLevel string
}

// RedisConfig holds Redis Cluster connection parameters.
type RedisConfig struct {
	Nodes      []string
	Password   string
	PoolSize   int
	MaxRetries int
}

// PostgresConfig holds the single PostgreSQL connection's parameters.
type PostgresConfig struct {
	DSN           string
	Host          string
	Port          int
	Database      string
	User          string
	Password      string
	SSLMode       string
	RunMigrations bool
}

// Defaults returns a Config populated with reasonable default values for
// local development against docker-composed Redis Cluster and Postgres.
func Defaults() Config {
	return Config{
		Redis: RedisConfig{
			Nodes:      []string{"localhost:7001", "localhost:7002", "localhost:7003"},
			PoolSize:   10,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "roomrelay",
			User:          "postgres",
			SSLMode:       "disable",
			RunMigrations: true,
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(c.Redis.Nodes) == 0 {
		errs = append(errs, "redis: at least one cluster node must be configured")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
