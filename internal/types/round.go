package types

import "time"

// RoundKind distinguishes the computation round from trap test rounds.
type RoundKind string

const (
	RoundComputation RoundKind = "computation"
	RoundTest        RoundKind = "test"
)

// Verdict is the client's decision at the end of a session.
type Verdict string

const (
	VerdictAccept Verdict = "accept"
	VerdictReject Verdict = "reject"
)

// RoundRecord is the public summary of one finished round. It never carries
// secrets, angles or coins.
type RoundRecord struct {
	SessionID   string    `json:"session_id"`
	Index       int       `json:"round"`
	Kind        RoundKind `json:"kind"`
	Color       int       `json:"color"`
	Traps       int       `json:"traps"`
	Parities    []int     `json:"parities,omitempty"`
	Failed      bool      `json:"failed"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// SessionSummary is the tally of a session rebuilt from its rounds.
type SessionSummary struct {
	SessionID    string  `json:"session_id"`
	Rounds       int     `json:"rounds"`
	TestRounds   int     `json:"test_rounds"`
	FailedRounds int     `json:"failed_rounds"`
	Threshold    int     `json:"threshold"`
	Verdict      Verdict `json:"verdict"`
}

// Decide returns accept iff failed rounds do not exceed threshold.
func Decide(failed, threshold int) Verdict {
	if failed <= threshold {
		return VerdictAccept
	}
	return VerdictReject
}
