// Package metrics provides Prometheus metrics collection for Polaris.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring the
// fetch/extract pipeline, the rule review lifecycle, compliance
// evaluations, and LLM oracle calls.
//
// # Metrics Categories
//
//   - Pipeline Metrics: Fetch and extraction counts, durations, sizes,
//     confidence scores, and scheduler runs
//   - Lifecycle Metrics: Review decisions, active rule versions, and
//     review queue depth
//   - Evaluator Metrics: Verdict counts by status and risk, fallbacks,
//     and evaluation durations
//   - Oracle Metrics: LLM call counts and latencies by operation
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(cfg, registry)
//
//	// Record pipeline metrics
//	collector.RecordFetch("de-tourist", "success", 2*time.Second, 48123)
//	collector.RecordExtraction("de-tourist", "success", 8*time.Second, 0.85)
//
//	// Record lifecycle metrics
//	collector.RecordReview("approved")
//	collector.UpdateActiveVersion("DE", "tourist", 3)
//
//	// Record evaluations
//	collector.RecordEvaluation("NEED_FIX", "MEDIUM", false, 200*time.Millisecond)
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus format:
//
//	# HELP lumina_polaris_fetches_total Total number of source fetch attempts
//	# TYPE lumina_polaris_fetches_total counter
//	lumina_polaris_fetches_total{source_id="de-tourist",status="success"} 42
//
// # Histogram Buckets
//
// Duration histograms share a single bucket layout spanning quick fetches
// and long oracle calls (100ms - 60s). The layout is configurable through
// MetricsConfig.DurationBuckets.
package metrics
