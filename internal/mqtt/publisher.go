package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// RoundReport is the broker view of a finished round. Executors share the
// broker, so it omits everything that tells a computation round from a test
// round (kind, colour, trap count, parities); those stay in the ledger.
type RoundReport struct {
	SessionID   string    `json:"session_id"`
	Index       int       `json:"round"`
	Failed      bool      `json:"failed"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewRoundReport strips rec down to its broker view.
func NewRoundReport(rec types.RoundRecord) RoundReport {
	return RoundReport{
		SessionID:   rec.SessionID,
		Index:       rec.Index,
		Failed:      rec.Failed,
		DurationMS:  rec.DurationMS,
		CompletedAt: rec.CompletedAt,
	}
}

// ReportPublisher publishes finished rounds to the broker.
type ReportPublisher struct {
	client Publisher
	topics Topics
}

// NewReportPublisher publishes through client under topics.
func NewReportPublisher(client Publisher, topics Topics) *ReportPublisher {
	return &ReportPublisher{client: client, topics: topics}
}

// RecordRound publishes rec's RoundReport as JSON on the session's rounds
// topic.
func (p *ReportPublisher) RecordRound(rec types.RoundRecord) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	payload, err := json.Marshal(NewRoundReport(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal round report: %w", err)
	}
	return p.client.Publish(p.topics.Rounds(rec.SessionID), payload)
}

// EventSink mirrors emitted events to the broker.
type EventSink struct {
	client Publisher
	topics Topics
}

// NewEventSink returns a sink for events.AddSink.
func NewEventSink(client Publisher, topics Topics) *EventSink {
	return &EventSink{client: client, topics: topics}
}

// Publish implements events.Sink. Events are dropped while disconnected.
func (s *EventSink) Publish(e events.Event) error {
	if !s.client.IsConnected() {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.client.Publish(s.topics.Event(e.Name), payload)
}
