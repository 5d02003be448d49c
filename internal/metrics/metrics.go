package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AaronLay10/BlindEngine/internal/types"
)

// SessionMetrics holds the Prometheus collectors of the verification loop.
type SessionMetrics struct {
	// Round metrics
	RoundsTotal   *prometheus.CounterVec
	RoundsFailed  prometheus.Counter
	RoundDuration *prometheus.HistogramVec
	RoundsActive  prometheus.Gauge

	// Trap metrics
	TrapsChecked prometheus.Counter
	TrapFailures prometheus.Counter

	// Session metrics
	SessionsTotal *prometheus.CounterVec
}

var (
	sessionMetricsOnce sync.Once
	sessionMetrics     *SessionMetrics
)

// Default returns the process-wide collectors on the default registry.
func Default() *SessionMetrics {
	sessionMetricsOnce.Do(func() {
		sessionMetrics = New(prometheus.DefaultRegisterer)
	})
	return sessionMetrics
}

// New registers a fresh set of collectors on reg.
func New(reg prometheus.Registerer) *SessionMetrics {
	f := promauto.With(reg)
	return &SessionMetrics{
		RoundsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blindengine",
				Subsystem: "session",
				Name:      "rounds_total",
				Help:      "Delegated rounds completed, by kind",
			},
			[]string{"kind"},
		),
		RoundsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "blindengine",
			Subsystem: "session",
			Name:      "rounds_failed_total",
			Help:      "Test rounds with at least one nonzero trap parity",
		}),
		RoundDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "blindengine",
				Subsystem: "session",
				Name:      "round_duration_seconds",
				Help:      "Wall time of one delegated round",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"kind"},
		),
		RoundsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "blindengine",
			Subsystem: "session",
			Name:      "rounds_active",
			Help:      "Rounds currently in flight",
		}),
		TrapsChecked: f.NewCounter(prometheus.CounterOpts{
			Namespace: "blindengine",
			Subsystem: "traps",
			Name:      "checked_total",
			Help:      "Trap parities evaluated",
		}),
		TrapFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "blindengine",
			Subsystem: "traps",
			Name:      "failures_total",
			Help:      "Trap parities that came back nonzero",
		}),
		SessionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blindengine",
				Subsystem: "session",
				Name:      "sessions_total",
				Help:      "Finished sessions, by verdict",
			},
			[]string{"verdict"},
		),
	}
}

// ObserveRound records one finished round.
func (m *SessionMetrics) ObserveRound(rec types.RoundRecord, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RoundsTotal.WithLabelValues(string(rec.Kind)).Inc()
	m.RoundDuration.WithLabelValues(string(rec.Kind)).Observe(elapsed.Seconds())
	if rec.Kind != types.RoundTest {
		return
	}
	m.TrapsChecked.Add(float64(len(rec.Parities)))
	for _, p := range rec.Parities {
		if p != 0 {
			m.TrapFailures.Inc()
		}
	}
	if rec.Failed {
		m.RoundsFailed.Inc()
	}
}

// ObserveSession records a verdict.
func (m *SessionMetrics) ObserveSession(v types.Verdict) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(string(v)).Inc()
}
