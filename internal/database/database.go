// Package database owns the pgx connection pool used by the Postgres-backed
// saved-location repositories.
package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config describes how to reach the database. All values come from the DB_*
// environment variables; the defaults match local development.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// MaxConns and MinConns bound the pool; ConnMaxLifetime recycles
	// long-lived connections so load balancer failovers are picked up.
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// ConfigFromEnv reads the DB_* environment variables.
func ConfigFromEnv() Config {
	return Config{
		Host:            envStr("DB_HOST", "localhost"),
		Port:            envInt("DB_PORT", 5432),
		User:            envStr("DB_USER", "airscape"),
		Password:        envStr("DB_PASSWORD", "localdev"),
		Database:        envStr("DB_NAME", "airscape"),
		SSLMode:         envStr("DB_SSL_MODE", "disable"),
		MaxConns:        envInt("DB_MAX_OPEN_CONNS", 10),
		MinConns:        envInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// DSN returns the pgx connection string for this config.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Connect builds the pool and verifies the database answers before handing
// it out.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns) //nolint:gosec // pool sizes are small env-sourced ints
	poolConfig.MinConns = int32(cfg.MinConns) //nolint:gosec // pool sizes are small env-sourced ints
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func envStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
