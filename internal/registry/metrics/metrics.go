package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the registry facade.
type Metrics struct {
	Registrations prometheus.Counter
	Mutations     *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	OpDuration    *prometheus.HistogramVec
}

// New creates and registers all registry metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdbook_registrations_total",
			Help: "Total number of animal records registered",
		}),
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "herdbook_mutations_total",
			Help: "Total number of committed field mutations by field",
		}, []string{"field"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "herdbook_rejections_total",
			Help: "Total number of rejected operations by error code",
		}, []string{"code"}),
		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "herdbook_operation_duration_seconds",
			Help:    "Latency of registry facade operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Recording helpers are nil-safe so tests can pass a nil *Metrics without
// touching the default registerer.

func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) RecordMutation(field string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(field).Inc()
}

func (m *Metrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveOp(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OpDuration.WithLabelValues(operation).Observe(seconds)
}
