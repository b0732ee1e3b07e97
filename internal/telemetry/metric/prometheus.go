package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loresync"

// Hook kinds used as the "kind" label of hook failures.
const (
	HookChange     = "change"
	HookValidation = "validation"
	HookSuccess    = "success"
	HookError      = "error"
)

// Metrics holds the coordinator's instruments.
type Metrics struct {
	propagations        *prometheus.CounterVec
	propagationDuration prometheus.Histogram
	hookFailures        *prometheus.CounterVec
	rollbacks           *prometheus.CounterVec
	validations         *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		propagations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagations_total",
			Help:      "Propagation operations by final status.",
		}, []string{"status"}),
		propagationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "propagation_duration_seconds",
			Help:      "Wall time of propagation operations, hooks included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_failures_total",
			Help:      "Hook invocations that returned an error or panicked.",
		}, []string{"kind"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Rollback requests by result (applied or ignored).",
		}, []string{"result"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validate calls by result (valid or invalid).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.propagations, m.propagationDuration, m.hookFailures, m.rollbacks, m.validations)
	}
	return m
}

// ObservePropagation records one finished propagation.
func (m *Metrics) ObservePropagation(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.propagations.WithLabelValues(status).Inc()
	m.propagationDuration.Observe(d.Seconds())
}

// HookFailed counts a failed hook of the given kind.
func (m *Metrics) HookFailed(kind string) {
	if m == nil {
		return
	}
	m.hookFailures.WithLabelValues(kind).Inc()
}

// RollbackRequested counts a rollback call.
func (m *Metrics) RollbackRequested(applied bool) {
	if m == nil {
		return
	}
	result := "ignored"
	if applied {
		result = "applied"
	}
	m.rollbacks.WithLabelValues(result).Inc()
}

// Validated counts a validate call.
func (m *Metrics) Validated(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.validations.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
