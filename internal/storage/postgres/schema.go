package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; index+1 is the schema version. Append
// only, never edit a released step.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		event_id   BIGSERIAL PRIMARY KEY,
		ts         TIMESTAMPTZ NOT NULL,
		level      TEXT NOT NULL,
		event      TEXT NOT NULL,
		msg        TEXT,
		fields     JSONB,
		engine_id  TEXT NOT NULL,
		session_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
	CREATE INDEX IF NOT EXISTS idx_events_engine_id ON events(engine_id);`,

	`CREATE TABLE IF NOT EXISTS rounds (
		round_pk     BIGSERIAL PRIMARY KEY,
		engine_id    TEXT NOT NULL,
		session_id   TEXT NOT NULL,
		round        INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		color        INTEGER NOT NULL,
		traps        INTEGER NOT NULL,
		parities     JSONB,
		failed       BOOLEAN NOT NULL,
		duration_ms  BIGINT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		UNIQUE (session_id, round)
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id);`,

	`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id) WHERE session_id IS NOT NULL;`,
}

// SchemaVersion is the version New migrates to.
func SchemaVersion() int { return len(migrations) }

// migrate applies every step newer than the recorded version, each in its
// own transaction.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return err
	}
	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return err
	}
	for v := current + 1; v <= len(migrations); v++ {
		if err := applyStep(ctx, db, v); err != nil {
			return fmt.Errorf("step %d: %w", v, err)
		}
	}
	return nil
}

func applyStep(ctx context.Context, db *sql.DB, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migrations[version-1]); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit()
}
