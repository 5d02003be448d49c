// Package postgres keeps the engine's durable record: emitted events and
// the per-round verification ledger.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const (
	connectTimeout = 5 * time.Second
	maxOpenConns   = 8

	defaultLimit = 200
	maxLimit     = 10000
)

// Options describe the connection. Empty fields fall back to the PG*
// environment variables, then to defaults.
type Options struct {
	Host     string
	Port     int
	User     string
	Database string
	Password string
	SSLMode  string
	EngineID string
}

// Client is one engine's handle on the event log and rounds ledger. Rows
// written by other engines sharing the database are not visible through it.
type Client struct {
	db       *sql.DB
	engineID string
}

// ConnString renders opts as a lib/pq keyword/value string.
func (o Options) ConnString() string {
	port := ""
	if o.Port > 0 {
		port = strconv.Itoa(o.Port)
	}
	kv := [][2]string{
		{"host", firstNonEmpty(o.Host, os.Getenv("PGHOST"), "127.0.0.1")},
		{"port", firstNonEmpty(port, os.Getenv("PGPORT"), "5432")},
		{"user", firstNonEmpty(o.User, os.Getenv("PGUSER"), "blindengine")},
		{"password", firstNonEmpty(o.Password, os.Getenv("PGPASSWORD"))},
		{"dbname", firstNonEmpty(o.Database, os.Getenv("PGDATABASE"), "blindengine")},
		{"sslmode", firstNonEmpty(o.SSLMode, os.Getenv("PGSSLMODE"), "disable")},
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		if p[1] != "" {
			parts = append(parts, p[0]+"="+p[1])
		}
	}
	return strings.Join(parts, " ")
}

// New connects, then brings the schema up to date.
func New(opts Options) (*Client, error) {
	db, err := sql.Open("postgres", opts.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	c := &Client{db: db, engineID: opts.EngineID}
	if c.engineID == "" {
		c.engineID = "default"
	}
	return c, nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
