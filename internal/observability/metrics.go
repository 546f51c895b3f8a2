package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	activeSessions       prometheus.Gauge
	sessionsCreatedTotal prometheus.Counter
	sessionsReapedTotal  prometheus.Counter
	hydrationDuration    prometheus.Histogram
	persistDuration      prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current warm session count.",
				},
			),
			sessionsCreatedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_created_total",
					Help: "Total sessions created.",
				},
			),
			sessionsReapedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_reaped_total",
					Help: "Total stale sessions reclaimed.",
				},
			),
			hydrationDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_hydration_duration_seconds",
					Help:    "Cold-session hydration duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			persistDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_persist_duration_seconds",
					Help:    "Session persist duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.sessionsCreatedTotal,
			m.sessionsReapedTotal,
			m.hydrationDuration,
			m.persistDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetActiveSessions(count int) {
	getMetrics().activeSessions.Set(float64(count))
}

func IncSessionsCreated() {
	getMetrics().sessionsCreatedTotal.Inc()
}

func AddSessionsReaped(count int) {
	getMetrics().sessionsReapedTotal.Add(float64(count))
}

func ObserveHydration(duration time.Duration) {
	getMetrics().hydrationDuration.Observe(duration.Seconds())
}

func ObservePersist(duration time.Duration) {
	getMetrics().persistDuration.Observe(duration.Seconds())
}
