package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AaronLay10/BlindEngine/internal/storage/postgres"
)

var buffer = NewRingBuffer(256)

var (
	pgClient      *postgres.Client
	pgMu          sync.RWMutex
	pgErrorLogged bool
)

var (
	logMu  sync.RWMutex
	logger = zerolog.Nop()
)

// Sink receives every emitted event, e.g. an MQTT publisher.
type Sink interface {
	Publish(e Event) error
}

var (
	sinkMu        sync.RWMutex
	sinks         []Sink
	sinkErrLogged = make(map[Sink]bool)
)

// SetPostgresClient sets the Postgres client for event persistence.
func SetPostgresClient(client *postgres.Client) {
	pgMu.Lock()
	pgClient = client
	pgErrorLogged = false
	pgMu.Unlock()
}

// GetPostgresClient returns the current Postgres client (for API queries).
func GetPostgresClient() *postgres.Client {
	pgMu.RLock()
	defer pgMu.RUnlock()
	return pgClient
}

// SetLogger routes every emitted event through l as well.
func SetLogger(l zerolog.Logger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

// Logger returns the logger events are written through, for plain log lines
// that are not events.
func Logger() *zerolog.Logger {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	return &l
}

// NewLogger returns a JSON logger on w, or a human-readable one if console
// is set.
func NewLogger(w io.Writer, console bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// AddSink registers s for every subsequent event.
func AddSink(s Sink) {
	sinkMu.Lock()
	sinks = append(sinks, s)
	sinkMu.Unlock()
}

// ClearSinks drops every registered sink.
func ClearSinks() {
	sinkMu.Lock()
	sinks = nil
	sinkErrLogged = make(map[Sink]bool)
	sinkMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	hub.Publish(e)
	logEvent(e)

	// Persist to Postgres (non-blocking, error-resistant)
	pgMu.RLock()
	client := pgClient
	pgMu.RUnlock()

	if client != nil {
		sessionID, _ := fields["session_id"].(string)
		if err := client.Append(ts, level, name, msg, fields, sessionID); err != nil {
			pgMu.Lock()
			first := !pgErrorLogged
			pgErrorLogged = true
			pgMu.Unlock()
			if first {
				// Straight into the buffer: going through Emit would recurse
				// while Postgres keeps failing.
				recordInternalError("postgres append failed", err)
			}
		}
	}

	publishToSinks(e)

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

func publishToSinks(e Event) {
	sinkMu.RLock()
	active := append([]Sink(nil), sinks...)
	sinkMu.RUnlock()

	for _, s := range active {
		if err := s.Publish(e); err != nil {
			sinkMu.Lock()
			first := !sinkErrLogged[s]
			sinkErrLogged[s] = true
			sinkMu.Unlock()
			if first {
				recordInternalError("event sink publish failed", err)
			}
		}
	}
}

func recordInternalError(msg string, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     "error",
		Name:      "system.error",
		Message:   msg,
		Fields: map[string]interface{}{
			"error": err.Error(),
		},
	}
	buffer.Add(e)
	logEvent(e)
}

func logEvent(e Event) {
	lvl, err := zerolog.ParseLevel(e.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logMu.RLock()
	l := logger
	logMu.RUnlock()

	l.WithLevel(lvl).Str("event", e.Name).Fields(e.Fields).Msg(e.Message)
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount is the number of events emitted since start or the last Clear.
func TotalCount() uint64 {
	return buffer.Total()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
