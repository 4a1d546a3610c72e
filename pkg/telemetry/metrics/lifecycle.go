package metrics

import (
	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics tracks the rule review and approval lifecycle.
//
// Metrics:
//   - lumina_polaris_reviews_total: Review decisions by outcome
//   - lumina_polaris_active_rule_version: Active rule set version per key
//   - lumina_polaris_pending_candidates: Depth of the review queue
type LifecycleMetrics struct {
	reviewsTotal  *prometheus.CounterVec
	activeVersion *prometheus.GaugeVec
	pending       prometheus.Gauge
}

// NewLifecycleMetrics creates and registers lifecycle metrics with the
// provided registry.
func NewLifecycleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LifecycleMetrics {
	lm := &LifecycleMetrics{
		reviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reviews_total",
				Help:      "Total number of candidate review decisions",
			},
			[]string{"decision"},
		),

		activeVersion: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_rule_version",
				Help:      "Version number of the active rule set per country and category",
			},
			[]string{"country", "category"},
		),

		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pending_candidates",
				Help:      "Number of candidates awaiting review",
			},
		),
	}

	registry.MustRegister(
		lm.reviewsTotal,
		lm.activeVersion,
		lm.pending,
	)

	return lm
}

// RecordReview records a review decision ("approved" or "rejected").
func (lm *LifecycleMetrics) RecordReview(decision string) {
	lm.reviewsTotal.WithLabelValues(decision).Inc()
}

// UpdateActiveVersion updates the active version gauge for a key.
func (lm *LifecycleMetrics) UpdateActiveVersion(country, category string, version int) {
	lm.activeVersion.WithLabelValues(country, category).Set(float64(version))
}

// UpdatePending updates the review queue depth gauge.
func (lm *LifecycleMetrics) UpdatePending(count int) {
	lm.pending.Set(float64(count))
}
