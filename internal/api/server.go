package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/orchestrator"
	"github.com/AaronLay10/BlindEngine/internal/storage/postgres"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "blindengine",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// readinessState tracks the dependencies /ready reports on.
type readinessState struct {
	mu                sync.RWMutex
	engineReady       bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{mqttOptional: true, postgresOptional: true}

// SetEngineReady marks the verification engine as loaded.
func SetEngineReady(ready bool) {
	readiness.mu.Lock()
	readiness.engineReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records broker connectivity. Optional dependencies do not
// block readiness.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetPostgresState records database connectivity.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
	readiness.mu.Unlock()
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func dependencyCheck(connected, optional bool) (CheckResult, bool) {
	switch {
	case connected:
		return CheckResult{Status: "ok"}, true
	case optional:
		return CheckResult{Status: "unavailable", Message: "optional dependency"}, true
	default:
		return CheckResult{Status: "not_connected"}, false
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	s := readinessState{
		engineReady:       readiness.engineReady,
		mqttConnected:     readiness.mqttConnected,
		mqttOptional:      readiness.mqttOptional,
		postgresConnected: readiness.postgresConnected,
		postgresOptional:  readiness.postgresOptional,
	}
	readiness.mu.RUnlock()

	resp := ReadinessResponse{Ready: true, Checks: make(map[string]CheckResult)}
	var failing []string

	if s.engineReady {
		resp.Checks["engine"] = CheckResult{Status: "ok"}
	} else {
		resp.Checks["engine"] = CheckResult{Status: "not_ready"}
		failing = append(failing, "engine")
	}
	var ok bool
	if resp.Checks["mqtt"], ok = dependencyCheck(s.mqttConnected, s.mqttOptional); !ok {
		failing = append(failing, "mqtt")
	}
	if resp.Checks["postgres"], ok = dependencyCheck(s.postgresConnected, s.postgresOptional); !ok {
		failing = append(failing, "postgres")
	}

	w.Header().Set("Content-Type", "application/json")
	if len(failing) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = "not ready: " + strings.Join(failing, ", ")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// eventsHandler serves the in-memory ring buffer, optionally narrowed by
// ?event=<prefix> and ?session=<id>, or the Postgres history with
// ?source=db.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	limit := queryInt(r, "limit", 0)

	if r.URL.Query().Get("source") == "db" {
		client := events.GetPostgresClient()
		if client == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "postgres not configured"})
			return
		}
		q := r.URL.Query()
		rows, err := client.QueryEvents(postgres.EventQuery{
			Limit:     limit,
			Prefix:    q.Get("event"),
			SessionID: q.Get("session"),
		})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(rows)
		return
	}

	q := r.URL.Query()
	_ = json.NewEncoder(w).Encode(events.RecentMatching(limit, q.Get("event"), q.Get("session")))
}

var (
	ledgerMu sync.RWMutex
	ledger   orchestrator.RoundLedger
)

// SetLedger sets the rounds ledger served by /rounds.
func SetLedger(l orchestrator.RoundLedger) {
	ledgerMu.Lock()
	ledger = l
	ledgerMu.Unlock()
}

type RoundsResponse struct {
	Rounds  []types.RoundRecord   `json:"rounds"`
	Summary *types.SessionSummary `json:"summary,omitempty"`
}

// roundsHandler serves ?session=<id>&threshold=<n>&limit=<n>. Without a
// session it lists the latest rounds of every session.
func roundsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ledgerMu.RLock()
	l := ledger
	ledgerMu.RUnlock()
	if l == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rounds ledger not configured"})
		return
	}

	sessionID := r.URL.Query().Get("session")
	limit := queryInt(r, "limit", 0)
	if sessionID == "" {
		rows, err := l.QueryRounds("", limit)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(RoundsResponse{Rounds: rows})
		return
	}

	summary, rows, err := orchestrator.RestoreSession(l, sessionID, queryInt(r, "threshold", 0), limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if summary == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		return
	}
	_ = json.NewEncoder(w).Encode(RoundsResponse{Rounds: rows, Summary: summary})
}

// NewMux wires every endpoint. Health, readiness and metrics stay public.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("/rounds", RequireAnyRole(roundsHandler))
	mux.HandleFunc("/ws", RequireAnyRole(wsEventsHandler))
	return mux
}

// ListenAndServe starts the API server on the given port.
// It blocks until the server exits.
func ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tlsCfg, err := LoadTLSConfig()
	if err != nil {
		return err
	}
	if tlsCfg != nil {
		srv.TLSConfig = tlsCfg
		events.Logger().Info().Str("addr", addr).Msg("API listening (TLS)")
		return srv.ListenAndServeTLS("", "")
	}
	events.Logger().Info().Str("addr", addr).Msg("API listening")
	return srv.ListenAndServe()
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func Start(port int) {
	go func() {
		if err := ListenAndServe(port); err != nil && err != http.ErrServerClosed {
			events.Logger().Error().Err(err).Msg("api server error")
		}
	}()
}
