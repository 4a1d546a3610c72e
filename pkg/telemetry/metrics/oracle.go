package metrics

import (
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OracleMetrics tracks calls to the LLM oracle backend.
//
// Metrics:
//   - lumina_polaris_oracle_calls_total: Calls by operation and status
//   - lumina_polaris_oracle_call_duration_seconds: Call duration histogram
type OracleMetrics struct {
	callsTotal *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewOracleMetrics creates and registers oracle metrics with the provided
// registry.
func NewOracleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OracleMetrics {
	om := &OracleMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "oracle_calls_total",
				Help:      "Total number of LLM oracle calls",
			},
			[]string{"operation", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "oracle_call_duration_seconds",
				Help:      "Duration of LLM oracle calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		om.callsTotal,
		om.duration,
	)

	return om
}

// RecordCall records a completed oracle call.
func (om *OracleMetrics) RecordCall(operation, status string, duration time.Duration) {
	om.callsTotal.WithLabelValues(operation, status).Inc()
	om.duration.WithLabelValues(operation).Observe(duration.Seconds())
}
