package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventRow is one persisted event.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	EngineID  string                 `json:"engine_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// EventQuery narrows QueryEvents. Zero values mean no filter.
type EventQuery struct {
	Limit     int
	Prefix    string // event name prefix, e.g. "trap."
	SessionID string
}

// Append stores one event.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	if fields != nil {
		var err error
		if fieldsJSON, err = json.Marshal(fields); err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
	}
	_, err := c.db.Exec(`
		INSERT INTO events (ts, level, event, msg, fields, engine_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ts, level, event, nullString(msg), fieldsJSON, c.engineID, nullString(sessionID))
	return err
}

// Query returns the latest limit events, newest first.
func (c *Client) Query(limit int) ([]EventRow, error) {
	return c.QueryEvents(EventQuery{Limit: limit})
}

// QueryEvents returns this engine's events matching q, newest first.
func (c *Client) QueryEvents(q EventQuery) ([]EventRow, error) {
	query, args := buildEventQuery(c.engineID, q)
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			e          EventRow
			fieldsJSON []byte
			msg, sid   sql.NullString
		)
		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.EngineID, &sid); err != nil {
			return nil, err
		}
		if msg.Valid {
			e.Message = &msg.String
		}
		if sid.Valid {
			e.SessionID = &sid.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func buildEventQuery(engineID string, q EventQuery) (string, []interface{}) {
	where := []string{"engine_id = $1"}
	args := []interface{}{engineID}
	if q.Prefix != "" {
		args = append(args, escapeLike(q.Prefix)+"%")
		where = append(where, "event LIKE $"+strconv.Itoa(len(args)))
	}
	if q.SessionID != "" {
		args = append(args, q.SessionID)
		where = append(where, "session_id = $"+strconv.Itoa(len(args)))
	}
	args = append(args, clampLimit(q.Limit))
	query := `SELECT event_id, ts, level, event, msg, fields, engine_id, session_id FROM events WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY ts DESC LIMIT $` + strconv.Itoa(len(args))
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
