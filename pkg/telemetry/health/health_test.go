package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCheckReadiness_AllHealthy(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("rule-store", func(ctx context.Context) error { return nil })
	c.RegisterCheck("registry-store", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())

	if status.Status != "ready" {
		t.Fatalf("status = %q, want ready", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("got %d check results, want 2", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != "ok" {
			t.Errorf("check %q status = %q, want ok", name, result.Status)
		}
	}
}

func TestCheckReadiness_UnhealthyDependencyDegrades(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("rule-store", func(ctx context.Context) error { return nil })
	c.RegisterCheck("registry-store", func(ctx context.Context) error {
		return errors.New("database is locked")
	})

	status := c.CheckReadiness(context.Background())

	if status.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", status.Status)
	}
	result := status.Checks["registry-store"]
	if result.Status != "unhealthy" {
		t.Errorf("registry-store status = %q, want unhealthy", result.Status)
	}
	if !strings.Contains(result.Message, "database is locked") {
		t.Errorf("registry-store message = %q, want cause included", result.Message)
	}
}

func TestCheckReadiness_NoChecksIsReady(t *testing.T) {
	c := New(time.Second)

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Fatalf("status = %q, want ready", status.Status)
	}
}

func TestCheckReadiness_SlowCheckTimesOut(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	status := c.CheckReadiness(context.Background())

	if status.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", status.Status)
	}
	if status.Checks["slow"].Status != "unhealthy" {
		t.Errorf("slow check status = %q, want unhealthy", status.Checks["slow"].Status)
	}
}

func TestRegisterCheck_ReplacesExisting(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })

	if c.CheckCount() != 1 {
		t.Fatalf("check count = %d, want 1", c.CheckCount())
	}
	if got := c.CheckReadiness(context.Background()).Status; got != "ready" {
		t.Fatalf("status = %q, want ready after replacement", got)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(time.Second)
	// A failing dependency must not affect liveness.
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", rec.Body.String())
	}
}

func TestReadinessHandler_Returns503WhenDegraded(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Errorf("body = %q, want degraded status", rec.Body.String())
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-01-01T00:00:00Z")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"version":"1.2.3"`, `"commit":"abc123"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body = %q, want %q", body, want)
		}
	}
}
