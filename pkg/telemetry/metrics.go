package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openfroyo/await/pkg/deferred"
)

// Metrics provides Prometheus metrics for await. A nil or disabled Metrics
// is a no-op, so callers never need to guard their instrumentation.
type Metrics struct {
	config MetricsConfig

	// Wait metrics
	waitsStarted   *prometheus.CounterVec
	waitsCompleted *prometheus.CounterVec
	waitDuration   *prometheus.HistogramVec

	// Attempt metrics
	attempts *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	// System metrics
	activeWaits prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.WaitDurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		waitsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "waits_started_total",
				Help:      "Total number of ensure waits started",
			},
			[]string{"kind"},
		),
		waitsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "waits_completed_total",
				Help:      "Total number of ensure waits completed",
			},
			[]string{"kind", "status"},
		),
		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wait_duration_seconds",
				Help:      "Duration of ensure waits in seconds",
				Buckets:   buckets,
			},
			[]string{"kind", "status"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Total number of resolution attempts",
			},
			[]string{"kind", "result"},
		),
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of resolution failures by class",
			},
			[]string{"class"},
		),
		activeWaits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_waits",
				Help:      "Current number of in-flight ensure waits",
			},
		),
	}

	registry.MustRegister(
		m.waitsStarted,
		m.waitsCompleted,
		m.waitDuration,
		m.attempts,
		m.errorsByClass,
		m.activeWaits,
	)

	return m, nil
}

// RecordWaitStarted increments the counter for started waits.
func (m *Metrics) RecordWaitStarted(kind string) {
	if m == nil || m.waitsStarted == nil {
		return
	}
	m.waitsStarted.WithLabelValues(kind).Inc()
	m.activeWaits.Inc()
}

// RecordWaitCompleted records a completed wait with its status and duration.
func (m *Metrics) RecordWaitCompleted(kind, status string, duration time.Duration) {
	if m == nil || m.waitsCompleted == nil {
		return
	}
	m.waitsCompleted.WithLabelValues(kind, status).Inc()
	m.waitDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
	m.activeWaits.Dec()
}

// RecordAttempt records a single resolution attempt. err is nil on success.
func (m *Metrics) RecordAttempt(kind string, err error) {
	if m == nil || m.attempts == nil {
		return
	}
	if err == nil {
		m.attempts.WithLabelValues(kind, "success").Inc()
		return
	}
	class := string(deferred.ClassOf(err))
	m.attempts.WithLabelValues(kind, class).Inc()
	m.errorsByClass.WithLabelValues(class).Inc()
}

// waitObserver adapts Metrics to the engine's observer hook for one wait.
type waitObserver struct {
	metrics *Metrics
	kind    string
}

// Attempted implements deferred.Observer.
func (o waitObserver) Attempted(attempt int, err error) {
	o.metrics.RecordAttempt(o.kind, err)
}

// Completed implements deferred.Observer.
func (o waitObserver) Completed(status deferred.Status, attempts int, elapsed time.Duration) {
	o.metrics.RecordWaitCompleted(o.kind, string(status), elapsed)
}

// Observer returns a deferred.Observer that records attempts and completion
// for a wait of the given kind (e.g. "tcp", "http", "file"). It also counts
// the wait as started; the engine reports completion exactly once.
func (m *Metrics) Observer(kind string) deferred.Observer {
	m.RecordWaitStarted(kind)
	return waitObserver{metrics: m, kind: kind}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if m == nil || !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
