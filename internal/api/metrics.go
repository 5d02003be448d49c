package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/version"
)

var (
	metricsOnce sync.Once
	engineMu    sync.RWMutex
	engineName  string
	startTime   = time.Now()
)

// SetEngineName sets the engine name used in alerts and build info.
func SetEngineName(name string) {
	engineMu.Lock()
	defer engineMu.Unlock()
	engineName = name
}

// GetEngineName returns the current engine name.
func GetEngineName() string {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return engineName
}

func boolGauge(read func(*readinessState) bool) func() float64 {
	return func() float64 {
		readiness.mu.RLock()
		defer readiness.mu.RUnlock()
		if read(readiness) {
			return 1
		}
		return 0
	}
}

// InitMetrics registers the process gauges on reg. Call once at startup;
// later calls are no-ops.
func InitMetrics(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		startTime = time.Now()
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "blindengine",
				Name:      "uptime_seconds",
				Help:      "Seconds since the engine started",
			}, func() float64 { return time.Since(startTime).Seconds() }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "blindengine",
				Name:      "events_total",
				Help:      "Events emitted since startup",
			}, func() float64 { return float64(events.TotalCount()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "blindengine",
				Name:      "ws_clients",
				Help:      "Active WebSocket event stream clients",
			}, func() float64 { return float64(events.SubscriberCount()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "blindengine",
				Name:      "ws_events_dropped_total",
				Help:      "Live events skipped for stream clients that fell behind",
			}, func() float64 { return float64(events.DroppedCount()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "blindengine",
				Name:      "api_auth_failures_total",
				Help:      "API requests rejected for bad credentials",
			}, func() float64 { return float64(AuthFailures()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "blindengine",
				Name:      "mqtt_connected",
				Help:      "Whether the MQTT broker is connected (1) or not (0)",
			}, boolGauge(func(s *readinessState) bool { return s.mqttConnected })),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "blindengine",
				Name:      "postgres_connected",
				Help:      "Whether PostgreSQL is connected (1) or not (0)",
			}, boolGauge(func(s *readinessState) bool { return s.postgresConnected })),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "blindengine",
				Name:        "build_info",
				Help:        "Build information",
				ConstLabels: prometheus.Labels{"version": version.Version},
			}, func() float64 { return 1 }),
		)
	})
}

// metricsHandler exposes the default Prometheus registry.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
