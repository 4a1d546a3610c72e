package metrics

import (
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluatorMetrics tracks compliance evaluation verdicts.
//
// Metrics:
//   - lumina_polaris_evaluations_total: Verdicts by status and risk level
//   - lumina_polaris_evaluation_fallbacks_total: Fallback verdicts served
//   - lumina_polaris_evaluation_duration_seconds: Evaluation duration
type EvaluatorMetrics struct {
	evaluationsTotal *prometheus.CounterVec
	fallbacksTotal   prometheus.Counter
	duration         prometheus.Histogram
}

// NewEvaluatorMetrics creates and registers evaluator metrics with the
// provided registry.
func NewEvaluatorMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluatorMetrics {
	em := &EvaluatorMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of document compliance evaluations",
			},
			[]string{"status", "risk"},
		),

		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_fallbacks_total",
				Help:      "Total number of fallback verdicts served after evaluation errors",
			},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of document compliance evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.fallbacksTotal,
		em.duration,
	)

	return em
}

// RecordEvaluation records a completed evaluation.
func (em *EvaluatorMetrics) RecordEvaluation(status, risk string, fallback bool, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(status, risk).Inc()
	if fallback {
		em.fallbacksTotal.Inc()
	}
	em.duration.Observe(duration.Seconds())
}
