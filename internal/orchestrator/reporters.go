package orchestrator

import (
	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// RoundReporter receives every finished round. Implementations are called
// from concurrent rounds and must be safe for that. The Postgres ledger and
// the MQTT report publisher both satisfy it.
type RoundReporter interface {
	RecordRound(rec types.RoundRecord) error
}

// RoundReporterFunc adapts a function to RoundReporter.
type RoundReporterFunc func(rec types.RoundRecord) error

func (f RoundReporterFunc) RecordRound(rec types.RoundRecord) error { return f(rec) }

// report fans rec out to every reporter. A failing reporter does not stop
// the session; the failure is emitted instead.
func (s *Session) report(rec types.RoundRecord) {
	for _, r := range s.reporters {
		if err := r.RecordRound(rec); err != nil {
			events.Emit("error", "system.error", "round report failed", map[string]interface{}{
				"session_id": rec.SessionID,
				"round":      rec.Index,
				"error":      err.Error(),
			})
		}
	}
}
