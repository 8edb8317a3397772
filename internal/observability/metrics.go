package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_skill"

// Metrics holds the Prometheus counters, histograms, and gauges for the skill.
type Metrics struct {
	// Dispatch metrics.
	Requests         *prometheus.CounterVec // labels: kind
	DispatchFailures prometheus.Counter
	CompositionErrs  *prometheus.CounterVec // labels: kind

	// Upstream weather metrics.
	WeatherFetches       *prometheus.CounterVec // labels: outcome={success,error}
	WeatherFetchDuration prometheus.Histogram

	// Audit publishing metrics.
	AuditPublished prometheus.Counter
	AuditDropped   prometheus.Counter
	AuditBatchSize prometheus.Histogram
	AuditRunning   prometheus.Gauge
}

// NewMetrics creates and registers all skill metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.Requests,
		m.DispatchFailures,
		m.CompositionErrs,
		m.WeatherFetches,
		m.WeatherFetchDuration,
		m.AuditPublished,
		m.AuditDropped,
		m.AuditBatchSize,
		m.AuditRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, which avoids
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests dispatched, by resolved request kind.",
		}, []string{"kind"}),
		DispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Requests answered by the exception path.",
		}),
		CompositionErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "composition_errors_total",
			Help:      "Responses degraded because the weather payload lacked a field.",
		}, []string{"kind"}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetch_total",
			Help:      "Upstream weather requests by outcome.",
		}, []string{"outcome"}),
		WeatherFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Upstream weather request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_published_total",
			Help:      "Dispatch records written to the audit topic.",
		}),
		AuditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_dropped_total",
			Help:      "Dispatch records discarded because the audit queue was full.",
		}),
		AuditBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_batch_size",
			Help:      "Number of dispatch records per audit batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		AuditRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_publisher_running",
			Help:      "1 when the audit publisher is active, 0 when shut down.",
		}),
	}
}
