package metrics

import (
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Polaris.
// It manages metric registration and provides a unified interface for
// recording metrics across the pipeline, rule lifecycle, evaluator, and
// oracle client.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Fetch/extract pipeline metrics
	pipelineMetrics *PipelineMetrics

	// Rule lifecycle metrics (approvals, rejections, active versions)
	lifecycleMetrics *LifecycleMetrics

	// Compliance evaluator metrics
	evaluatorMetrics *EvaluatorMetrics

	// LLM oracle call metrics
	oracleMetrics *OracleMetrics

	// API server metrics
	httpMetrics *HTTPMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "lumina",
//		Subsystem: "polaris",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "lumina"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "polaris"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Covers both quick fetches and long oracle calls (100ms - 60s)
		cfg.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.pipelineMetrics = NewPipelineMetrics(cfg, registry)
	c.lifecycleMetrics = NewLifecycleMetrics(cfg, registry)
	c.evaluatorMetrics = NewEvaluatorMetrics(cfg, registry)
	c.oracleMetrics = NewOracleMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordFetch records metrics for a completed fetch attempt.
//
// Parameters:
//   - sourceID: Registry source identifier
//   - status: Fetch outcome ("success", "failed")
//   - duration: Total fetch duration including retries
//   - bytes: Size of the fetched document body
func (c *Collector) RecordFetch(sourceID, status string, duration time.Duration, bytes int) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordFetch(sourceID, status, duration, bytes)
}

// RecordExtraction records metrics for a completed extraction attempt.
//
// Parameters:
//   - sourceID: Registry source identifier
//   - status: Extraction outcome ("success", "failed", "skipped")
//   - duration: Extraction duration including the oracle call
//   - confidence: Confidence score assigned to the candidate (0 when failed)
func (c *Collector) RecordExtraction(sourceID, status string, duration time.Duration, confidence float64) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordExtraction(sourceID, status, duration, confidence)
}

// RecordPipelineRun records a completed scheduler run and how many sources
// were due.
func (c *Collector) RecordPipelineRun(dueSources int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordRun(dueSources, duration)
}

// RecordReview records a review decision on a candidate.
//
// Parameters:
//   - decision: "approved" or "rejected"
func (c *Collector) RecordReview(decision string) {
	if !c.config.Enabled {
		return
	}
	c.lifecycleMetrics.RecordReview(decision)
}

// UpdateActiveVersion updates the active rule set version gauge for a key.
func (c *Collector) UpdateActiveVersion(country, category string, version int) {
	if !c.config.Enabled {
		return
	}
	c.lifecycleMetrics.UpdateActiveVersion(country, category, version)
}

// UpdatePendingCandidates updates the pending review queue depth gauge.
func (c *Collector) UpdatePendingCandidates(count int) {
	if !c.config.Enabled {
		return
	}
	c.lifecycleMetrics.UpdatePending(count)
}

// RecordEvaluation records a compliance evaluation verdict.
//
// Parameters:
//   - status: Verdict status ("APPROVED", "NEED_FIX", "REJECTED")
//   - risk: Risk level ("LOW", "MEDIUM", "HIGH")
//   - fallback: true when the deterministic fallback verdict was served
func (c *Collector) RecordEvaluation(status, risk string, fallback bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.evaluatorMetrics.RecordEvaluation(status, risk, fallback, duration)
}

// RecordOracleCall records a call to the LLM oracle backend.
//
// Parameters:
//   - operation: "extract" or "judge"
//   - status: "success", "error", or "repair"
func (c *Collector) RecordOracleCall(operation, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.oracleMetrics.RecordCall(operation, status, duration)
}

// RecordHTTPRequest records a completed API request. route is the
// registered route pattern (e.g. "/v1/candidates/{id}"), never the raw
// URL path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(method, route, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
