package orchestrator

import (
	"sort"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// DefaultRestoreLimit is the default number of rounds to load for restore.
const DefaultRestoreLimit = 1000

// RoundLedger is the read side of the rounds ledger.
type RoundLedger interface {
	QueryRounds(sessionID string, limit int) ([]types.RoundRecord, error)
}

// RestoreSession rebuilds a session's tally from the ledger.
// Returns nil if ledger is nil or holds no rounds for the session.
func RestoreSession(ledger RoundLedger, sessionID string, threshold, limit int) (*types.SessionSummary, []types.RoundRecord, error) {
	if ledger == nil {
		return nil, nil, nil
	}
	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := ledger.QueryRounds(sessionID, limit)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	summary := summarize(sessionID, rows, threshold)
	if summary.Rounds == 0 {
		return nil, nil, nil
	}
	return &summary, rows, nil
}

// EmitRestored announces a restored session.
func EmitRestored(summary *types.SessionSummary) {
	if summary == nil {
		return
	}
	events.Emit("info", "session.restored", "", map[string]interface{}{
		"session_id":    summary.SessionID,
		"rounds":        summary.Rounds,
		"failed_rounds": summary.FailedRounds,
		"verdict":       string(summary.Verdict),
	})
}

func summarize(sessionID string, rows []types.RoundRecord, threshold int) types.SessionSummary {
	s := types.SessionSummary{SessionID: sessionID, Threshold: threshold}
	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		if r.SessionID != sessionID || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		s.Rounds++
		if r.Kind == types.RoundTest {
			s.TestRounds++
		}
		if r.Failed {
			s.FailedRounds++
		}
	}
	s.Verdict = types.Decide(s.FailedRounds, threshold)
	return s
}
