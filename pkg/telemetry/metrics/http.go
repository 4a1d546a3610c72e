package metrics

import (
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks the API server's request handling.
//
// Metrics:
//   - lumina_polaris_http_requests_total: Requests by method, route, and status
//   - lumina_polaris_http_request_duration_seconds: Request latency histogram
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP server metrics with the
// provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		hm.requestsTotal,
		hm.requestDuration,
	)

	return hm
}

// RecordRequest records a completed HTTP request. route is the registered
// route pattern, not the raw URL path, to keep cardinality bounded.
func (hm *HTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	hm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// statusLabel buckets a status code into its class ("2xx", "4xx", ...).
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
