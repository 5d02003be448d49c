package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/BlindEngine/internal/types"
)

// RecordRound writes one finished round to the ledger. Re-recording the same
// round of a session is ignored.
func (c *Client) RecordRound(rec types.RoundRecord) error {
	parities, err := json.Marshal(rec.Parities)
	if err != nil {
		return fmt.Errorf("failed to marshal parities: %w", err)
	}
	query := `
		INSERT INTO rounds (engine_id, session_id, round, kind, color, traps, parities, failed, duration_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id, round) DO NOTHING
	`
	_, err = c.db.Exec(query, c.engineID, rec.SessionID, rec.Index, string(rec.Kind), rec.Color,
		rec.Traps, parities, rec.Failed, rec.DurationMS, rec.CompletedAt)
	return err
}

// QueryRounds returns a session's rounds in round order. An empty sessionID
// returns the most recent rounds of this engine, newest first.
func (c *Client) QueryRounds(sessionID string, limit int) ([]types.RoundRecord, error) {
	limit = clampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	const cols = `session_id, round, kind, color, traps, parities, failed, duration_ms, completed_at`
	if sessionID != "" {
		rows, err = c.db.Query(`SELECT `+cols+` FROM rounds WHERE engine_id = $1 AND session_id = $2 ORDER BY round ASC LIMIT $3`,
			c.engineID, sessionID, limit)
	} else {
		rows, err = c.db.Query(`SELECT `+cols+` FROM rounds WHERE engine_id = $1 ORDER BY completed_at DESC LIMIT $2`,
			c.engineID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.RoundRecord
	for rows.Next() {
		var rec types.RoundRecord
		var kind string
		var parities []byte
		if err := rows.Scan(&rec.SessionID, &rec.Index, &kind, &rec.Color, &rec.Traps, &parities,
			&rec.Failed, &rec.DurationMS, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.Kind = types.RoundKind(kind)
		if len(parities) > 0 {
			if err := json.Unmarshal(parities, &rec.Parities); err != nil {
				return nil, fmt.Errorf("failed to unmarshal parities: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary tallies a session's ledger against threshold.
func (c *Client) Summary(sessionID string, threshold int) (*types.SessionSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE kind = $3),
		       COUNT(*) FILTER (WHERE failed)
		FROM rounds
		WHERE engine_id = $1 AND session_id = $2
	`
	s := &types.SessionSummary{SessionID: sessionID, Threshold: threshold}
	if err := c.db.QueryRow(query, c.engineID, sessionID, string(types.RoundTest)).
		Scan(&s.Rounds, &s.TestRounds, &s.FailedRounds); err != nil {
		return nil, err
	}
	s.Verdict = types.Decide(s.FailedRounds, threshold)
	return s, nil
}
