// Package server provides the Polaris HTTP API.
//
// The server exposes three surfaces over one listener:
//
//   - Rule lifecycle: active rule set lookup, version history, change
//     log, and the candidate review queue with approve/reject actions.
//   - Source registry: listing and registering sources, and browsing the
//     snapshots captured for a source.
//   - Compliance evaluation: POST /v1/evaluate grades one submitted
//     document against the active rule set for a country/category pair.
//
// Operational endpoints ride alongside: /healthz (liveness), /readyz
// (readiness over store checks), /version, and Prometheus metrics at
// the configured path.
//
// All requests flow through a middleware chain: panic recovery, request
// ID propagation, structured request logging, and per-route metrics.
// Shutdown is graceful: Start blocks until the context is cancelled or
// a SIGINT/SIGTERM arrives, then drains in-flight requests up to the
// configured shutdown timeout.
package server
