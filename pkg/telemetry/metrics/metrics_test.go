package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lumina-hq/polaris/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	cfg := &config.MetricsConfig{
		Enabled:   true,
		Namespace: "lumina",
		Subsystem: "polaris",
	}
	return NewCollector(cfg, prometheus.NewRegistry())
}

func TestCollector_RecordFetch(t *testing.T) {
	c := newTestCollector(t)

	c.RecordFetch("de-tourist", "success", 2*time.Second, 1024)
	c.RecordFetch("de-tourist", "failed", time.Second, 0)
	c.RecordFetch("fr-student", "success", time.Second, 2048)

	got := testutil.ToFloat64(c.pipelineMetrics.fetchesTotal.WithLabelValues("de-tourist", "success"))
	if got != 1 {
		t.Errorf("fetches_total{de-tourist,success} = %v, want 1", got)
	}
	got = testutil.ToFloat64(c.pipelineMetrics.fetchesTotal.WithLabelValues("de-tourist", "failed"))
	if got != 1 {
		t.Errorf("fetches_total{de-tourist,failed} = %v, want 1", got)
	}
}

func TestCollector_RecordReview(t *testing.T) {
	c := newTestCollector(t)

	c.RecordReview("approved")
	c.RecordReview("approved")
	c.RecordReview("rejected")

	approved := testutil.ToFloat64(c.lifecycleMetrics.reviewsTotal.WithLabelValues("approved"))
	if approved != 2 {
		t.Errorf("reviews_total{approved} = %v, want 2", approved)
	}
}

func TestCollector_UpdateActiveVersion(t *testing.T) {
	c := newTestCollector(t)

	c.UpdateActiveVersion("DE", "tourist", 3)

	got := testutil.ToFloat64(c.lifecycleMetrics.activeVersion.WithLabelValues("DE", "tourist"))
	if got != 3 {
		t.Errorf("active_rule_version{DE,tourist} = %v, want 3", got)
	}
}

func TestCollector_RecordEvaluation(t *testing.T) {
	c := newTestCollector(t)

	c.RecordEvaluation("NEED_FIX", "MEDIUM", true, 100*time.Millisecond)

	got := testutil.ToFloat64(c.evaluatorMetrics.evaluationsTotal.WithLabelValues("NEED_FIX", "MEDIUM"))
	if got != 1 {
		t.Errorf("evaluations_total{NEED_FIX,MEDIUM} = %v, want 1", got)
	}
	fallbacks := testutil.ToFloat64(c.evaluatorMetrics.fallbacksTotal)
	if fallbacks != 1 {
		t.Errorf("evaluation_fallbacks_total = %v, want 1", fallbacks)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: false}
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordFetch("de-tourist", "success", time.Second, 100)
	c.RecordReview("approved")

	got := testutil.ToFloat64(c.pipelineMetrics.fetchesTotal.WithLabelValues("de-tourist", "success"))
	if got != 0 {
		t.Errorf("disabled collector recorded fetches_total = %v", got)
	}
}

func TestCollector_MetricNames(t *testing.T) {
	c := newTestCollector(t)
	c.RecordOracleCall("extract", "success", time.Second)

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "lumina_polaris_oracle_calls_total") {
			found = true
		}
	}
	if !found {
		t.Error("lumina_polaris_oracle_calls_total not registered")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordHTTPRequest("GET", "/v1/candidates", 200, 25*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("scrape status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lumina_polaris_http_requests_total") {
		t.Error("scrape output missing lumina_polaris_http_requests_total")
	}
}
