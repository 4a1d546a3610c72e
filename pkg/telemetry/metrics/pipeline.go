package metrics

import (
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks the fetch and extraction stages of the pipeline.
//
// Metrics:
//   - lumina_polaris_fetches_total: Fetch attempts by source and status
//   - lumina_polaris_fetch_duration_seconds: Fetch duration histogram
//   - lumina_polaris_fetch_size_bytes: Fetched document size histogram
//   - lumina_polaris_extractions_total: Extraction attempts by source and status
//   - lumina_polaris_extraction_duration_seconds: Extraction duration histogram
//   - lumina_polaris_extraction_confidence: Candidate confidence histogram
//   - lumina_polaris_pipeline_runs_total: Scheduler run count
//   - lumina_polaris_pipeline_due_sources: Due sources per run
type PipelineMetrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	fetchSize     *prometheus.HistogramVec

	extractionsTotal     *prometheus.CounterVec
	extractionDuration   *prometheus.HistogramVec
	extractionConfidence prometheus.Histogram

	runsTotal   prometheus.Counter
	runDuration prometheus.Histogram
	dueSources  prometheus.Gauge
}

// NewPipelineMetrics creates and registers pipeline metrics with the
// provided registry.
func NewPipelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fetches_total",
				Help:      "Total number of source fetch attempts",
			},
			[]string{"source_id", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of source fetches in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"source_id"},
		),

		fetchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fetch_size_bytes",
				Help:      "Size of fetched documents in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
			},
			[]string{"source_id"},
		),

		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extractions_total",
				Help:      "Total number of rule extraction attempts",
			},
			[]string{"source_id", "status"},
		),

		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extraction_duration_seconds",
				Help:      "Duration of rule extractions in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"source_id"},
		),

		extractionConfidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extraction_confidence",
				Help:      "Confidence scores assigned to extraction candidates",
				Buckets:   []float64{0.2, 0.4, 0.6, 0.8, 0.9, 1.0},
			},
		),

		runsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_runs_total",
				Help:      "Total number of scheduled pipeline runs",
			},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Duration of scheduled pipeline runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		dueSources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_due_sources",
				Help:      "Number of sources due in the most recent pipeline run",
			},
		),
	}

	registry.MustRegister(
		pm.fetchesTotal,
		pm.fetchDuration,
		pm.fetchSize,
		pm.extractionsTotal,
		pm.extractionDuration,
		pm.extractionConfidence,
		pm.runsTotal,
		pm.runDuration,
		pm.dueSources,
	)

	return pm
}

// RecordFetch records a completed fetch attempt.
func (pm *PipelineMetrics) RecordFetch(sourceID, status string, duration time.Duration, bytes int) {
	pm.fetchesTotal.WithLabelValues(sourceID, status).Inc()
	pm.fetchDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
	if bytes > 0 {
		pm.fetchSize.WithLabelValues(sourceID).Observe(float64(bytes))
	}
}

// RecordExtraction records a completed extraction attempt.
func (pm *PipelineMetrics) RecordExtraction(sourceID, status string, duration time.Duration, confidence float64) {
	pm.extractionsTotal.WithLabelValues(sourceID, status).Inc()
	pm.extractionDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
	if status == "success" {
		pm.extractionConfidence.Observe(confidence)
	}
}

// RecordRun records a completed scheduler run.
func (pm *PipelineMetrics) RecordRun(dueSources int, duration time.Duration) {
	pm.runsTotal.Inc()
	pm.runDuration.Observe(duration.Seconds())
	pm.dueSources.Set(float64(dueSources))
}
