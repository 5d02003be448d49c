package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/orchestrator"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert event types
const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
	AlertSessionRejected     = "session_rejected"
	AlertTrapFailures        = "trap_failures"
)

// AlertPayload is the JSON body posted to the webhook.
type AlertPayload struct {
	Engine    string         `json:"engine"`
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// AlertConfig holds alert configuration.
type AlertConfig struct {
	WebhookURL              string
	MQTTDisconnectDelay     time.Duration
	PostgresDisconnectDelay time.Duration
}

// connTracker debounces disconnect alerts for one dependency.
type connTracker struct {
	event     string
	label     string
	severity  string
	since     time.Time
	alerted   bool
	connected bool
}

var (
	alertConfig = &AlertConfig{
		MQTTDisconnectDelay:     30 * time.Second,
		PostgresDisconnectDelay: 5 * time.Second,
	}
	alertMu          sync.Mutex
	alertsReady      bool
	mqttTracker      = &connTracker{event: AlertMQTTDisconnected, label: "MQTT broker", severity: SeverityWarning, connected: true}
	postgresTracker  = &connTracker{event: AlertPostgresUnavailable, label: "PostgreSQL", severity: SeverityCritical, connected: true}
	webhookTransport = &http.Client{Timeout: 10 * time.Second}
)

// InitAlerts configures the webhook. An empty url falls back to
// BLINDENGINE_ALERT_WEBHOOK_URL.
func InitAlerts(url string) {
	alertMu.Lock()
	defer alertMu.Unlock()

	if url == "" {
		url = os.Getenv("BLINDENGINE_ALERT_WEBHOOK_URL")
	}
	alertConfig.WebhookURL = url
	if d, err := time.ParseDuration(os.Getenv("BLINDENGINE_MQTT_ALERT_DELAY")); err == nil {
		alertConfig.MQTTDisconnectDelay = d
	}
	if d, err := time.ParseDuration(os.Getenv("BLINDENGINE_POSTGRES_ALERT_DELAY")); err == nil {
		alertConfig.PostgresDisconnectDelay = d
	}

	if url != "" {
		events.Logger().Info().
			Dur("mqtt_delay", alertConfig.MQTTDisconnectDelay).
			Dur("pg_delay", alertConfig.PostgresDisconnectDelay).
			Msg("alerts enabled")
	}

	mqttTracker.connected, mqttTracker.alerted = true, false
	postgresTracker.connected, postgresTracker.alerted = true, false
	alertsReady = true
}

// GetAlertWebhookURL returns the configured webhook URL.
func GetAlertWebhookURL() string {
	alertMu.Lock()
	defer alertMu.Unlock()
	return alertConfig.WebhookURL
}

// SendAlert posts an alert in the background. Without a webhook it is
// only logged.
func SendAlert(event, severity, message string, details map[string]any) {
	alertMu.Lock()
	url := alertConfig.WebhookURL
	alertMu.Unlock()

	if url == "" {
		events.Logger().Warn().
			Str("alert", event).
			Str("severity", severity).
			Interface("details", details).
			Msg(message)
		return
	}

	name := GetEngineName()
	if name == "" {
		name = "unknown"
	}
	go sendWebhook(url, AlertPayload{
		Engine:    name,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	})
}

func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		events.Logger().Error().Err(err).Msg("alert: marshal payload")
		return
	}
	resp, err := webhookTransport.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		events.Logger().Error().Err(err).Msg("alert: webhook POST failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		events.Logger().Error().Int("status", resp.StatusCode).Msg("alert: webhook rejected")
	}
}

// AlertSessionVerdict raises a critical alert for a rejected session and a
// warning when an accepted session still saw trap failures.
func AlertSessionVerdict(rep *orchestrator.Report, threshold int) {
	if rep == nil {
		return
	}
	details := map[string]any{
		"session_id":    rep.SessionID,
		"rounds":        len(rep.Rounds),
		"failed_rounds": rep.FailedRounds,
		"threshold":     threshold,
	}
	switch {
	case rep.Verdict == types.VerdictReject:
		SendAlert(AlertSessionRejected, SeverityCritical, "verification session rejected", details)
	case rep.FailedRounds > 0:
		SendAlert(AlertTrapFailures, SeverityWarning, "trap failures within tolerance", details)
	}
}

// check must be called with alertMu held. It returns the alert to send,
// if any.
func (c *connTracker) check(connected bool, delay time.Duration, now time.Time) func() {
	if connected {
		var recovered func()
		if !c.connected && c.alerted {
			recovered = func() {
				SendAlert(c.event, SeverityInfo, c.label+" connection restored", map[string]any{
					"recovered_at": now.UTC().Format(time.RFC3339),
				})
			}
		}
		c.since, c.alerted, c.connected = time.Time{}, false, true
		return recovered
	}

	if c.connected {
		c.since = now
	}
	c.connected = false
	if c.alerted || c.since.IsZero() {
		return nil
	}
	down := now.Sub(c.since)
	if down < delay {
		return nil
	}
	c.alerted = true
	since := c.since
	return func() {
		SendAlert(c.event, c.severity, c.label+" disconnected", map[string]any{
			"disconnected_since":   since.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(down.Seconds()),
		})
	}
}

func checkAndAlert(c *connTracker, connected bool, delay func() time.Duration) {
	alertMu.Lock()
	if !alertsReady {
		alertMu.Unlock()
		return
	}
	send := c.check(connected, delay(), time.Now())
	alertMu.Unlock()
	if send != nil {
		send()
	}
}

// CheckAndAlertMQTT alerts once MQTT has been down past the configured delay.
func CheckAndAlertMQTT(connected bool) {
	checkAndAlert(mqttTracker, connected, func() time.Duration { return alertConfig.MQTTDisconnectDelay })
}

// CheckAndAlertPostgres alerts once Postgres has been down past the configured delay.
func CheckAndAlertPostgres(connected bool) {
	checkAndAlert(postgresTracker, connected, func() time.Duration { return alertConfig.PostgresDisconnectDelay })
}

// StartAlertMonitor polls the readiness state until stop is closed.
func StartAlertMonitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			readiness.mu.RLock()
			mqttUp, pgUp := readiness.mqttConnected, readiness.postgresConnected
			readiness.mu.RUnlock()
			CheckAndAlertMQTT(mqttUp)
			CheckAndAlertPostgres(pgUp)
		}
	}()
}
