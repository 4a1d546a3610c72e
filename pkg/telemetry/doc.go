// Package telemetry groups the observability subpackages for Polaris.
//
// Components:
//
//   - logging: structured slog-based logging with applicant-data and
//     credential redaction
//   - metrics: Prometheus metrics for the pipeline, rule lifecycle,
//     evaluator, oracle calls, and HTTP server
//   - health: liveness and readiness probes over store checks
//
// The subpackages are independent; services take the pieces they need
// through options rather than a combined telemetry handle.
package telemetry
