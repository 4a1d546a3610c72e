package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Writer = &buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	logger.Info("fetch completed", "source_id", "de-tourist", "status", "success")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "fetch completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["source_id"] != "de-tourist" {
		t.Errorf("source_id = %v", entry["source_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn", Format: "json"})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %s", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("warn message missing from output")
	}
}

func TestLogger_Redaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json", Redact: true})

	logger.Info("oracle call", "api_key", "sk-1234567890abcdef")

	out := buf.String()
	if strings.Contains(out, "1234567890abcdef") {
		t.Errorf("api key leaked: %s", out)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	ctx := WithSourceID(context.Background(), "de-tourist")
	ctx = WithActor(ctx, "reviewer-1")

	logger.InfoContext(ctx, "candidate approved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["source_id"] != "de-tourist" {
		t.Errorf("source_id = %v", entry["source_id"])
	}
	if entry["actor"] != "reviewer-1" {
		t.Errorf("actor = %v", entry["actor"])
	}
}

func TestLogger_WithComponent(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	logger.WithComponent("lifecycle").Info("rule set activated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "lifecycle" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}
