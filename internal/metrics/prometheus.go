// Package metrics provides a Prometheus-backed session metrics recorder for
// runs scraped by an external collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"seqprov/internal/session"
)

// PrometheusRecorder implements session.MetricsRecorder on top of
// client_golang collectors: a duration histogram and a result counter, both
// partitioned by operation.
type PrometheusRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusRecorder constructs a recorder and registers its collectors
// with reg. A nil reg selects the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seqprov",
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Duration of instrumented engine calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seqprov",
			Subsystem: "session",
			Name:      "operation_results_total",
			Help:      "Engine call outcomes partitioned by operation and status.",
		}, []string{"operation", "status"}),
	}
	if err := reg.Register(r.durations); err != nil {
		return nil, err
	}
	if err := reg.Register(r.results); err != nil {
		return nil, err
	}
	return r, nil
}

// Observe records one engine call outcome.
func (r *PrometheusRecorder) Observe(operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

var _ session.MetricsRecorder = (*PrometheusRecorder)(nil)
