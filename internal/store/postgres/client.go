// Package postgres implements the durable event and user-room stores using
// PostgreSQL via pgx, behind a single shared connection guarded by a mutex —
// the relay deliberately does not pool, since every persisted write must be
// immediately visible to the next fetch on the same backend.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ClientConfig holds connection parameters for the PostgreSQL client.
type ClientConfig struct {
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// DSN builds a PostgreSQL connection string from the given config.
func DSN(cfg ClientConfig) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database, sslMode,
	)
}

// Client wraps the single shared pgx.Conn. It exposes no locking of its
// own — Store is the sole caller and serializes every statement through its
// own mutex.
type Client struct {
	conn *pgx.Conn
}

// New dials a single PostgreSQL connection configured from cfg and verifies
// it with a ping.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	conn, err := pgx.Connect(ctx, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Close terminates the connection.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// RunMigrations reads embedded SQL files from the migrations/ directory and
// applies them in lexicographic order. There is no schema_migrations
// tracking table: at this scale a single migration file written entirely
// in terms of CREATE TABLE IF NOT EXISTS is already idempotent, so boot-time
// re-application is harmless and no bookkeeping is needed.
func (c *Client) RunMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", entry.Name(), err)
		}

		if _, err := c.conn.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("postgres: exec migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}
