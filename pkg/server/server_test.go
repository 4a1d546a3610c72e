package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/evaluator"
	"lumina-hq/polaris/pkg/registry"
	registrystore "lumina-hq/polaris/pkg/registry/store"
	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/rules/lifecycle"
	rulestore "lumina-hq/polaris/pkg/rules/store"
	"lumina-hq/polaris/pkg/telemetry/health"
)

type fixture struct {
	handler   http.Handler
	lifecycle *lifecycle.Service
	registry  *registry.Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	life := lifecycle.NewService(rulestore.NewMemoryStore())
	reg := registry.NewService(registrystore.NewMemoryStore())
	eval := evaluator.New()

	srv := NewServer(config.DefaultConfig(), life, reg, eval, opts...)
	return &fixture{
		handler:   srv.Handler(),
		lifecycle: life,
		registry:  reg,
	}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// seedCandidate submits a pending candidate for DE/student and returns it.
func (f *fixture) seedCandidate(t *testing.T, id string, data rules.RuleSetData) *rules.Candidate {
	t.Helper()

	c := &rules.Candidate{
		ID:         id,
		SnapshotID: "snap-" + id,
		SourceID:   "de-student",
		Key:        rules.Key{CountryCode: "DE", Category: "student"},
		Data:       data,
		Confidence: 0.8,
		Diff:       &rules.Diff{},
		State:      rules.StatePending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.lifecycle.SubmitCandidate(context.Background(), c); err != nil {
		t.Fatalf("submit candidate: %v", err)
	}
	return c
}

func studentData() rules.RuleSetData {
	return rules.RuleSetData{
		Requirements: []rules.Requirement{
			{DocumentType: "passport", Category: rules.CategoryRequired, Description: "Valid passport"},
			{DocumentType: "bank_statement", Category: rules.CategoryRequired, Description: "Proof of funds"},
		},
		Financial: &rules.FinancialRule{MinimumBalance: 11208, Currency: "EUR"},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestServer_HealthEndpoints(t *testing.T) {
	checker := health.New(time.Second)
	checker.RegisterCheck("rule-store", func(ctx context.Context) error { return nil })
	f := newFixture(t, WithHealthChecker(checker), WithVersion("1.0.0", "abc", "2026-01-01"))

	if rec := f.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /version = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"version":"1.0.0"`) {
		t.Errorf("version body = %q, want version included", rec.Body.String())
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response is missing X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client-supplied to be echoed", got)
	}
}

func TestServer_ActiveRuleSet(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/rulesets/active?country=DE&category=student", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before approval: status = %d, want 404", rec.Code)
	}

	c := f.seedCandidate(t, "cand-1", studentData())
	if _, err := f.lifecycle.Approve(context.Background(), c.ID, "alice"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	rec = f.do(t, http.MethodGet, "/v1/rulesets/active?country=DE&category=student", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("after approval: status = %d (body %q)", rec.Code, rec.Body.String())
	}
	var rs rules.RuleSet
	decodeBody(t, rec, &rs)
	if rs.Version != 1 || rs.ApprovalState != rules.StateApproved {
		t.Errorf("rule set = version %d state %s, want version 1 approved", rs.Version, rs.ApprovalState)
	}
}

func TestServer_ActiveRuleSetMissingParams(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/rulesets/active?country=DE", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing_parameter") {
		t.Errorf("body = %q, want missing_parameter code", rec.Body.String())
	}
}

func TestServer_CandidateReviewFlow(t *testing.T) {
	f := newFixture(t)
	c := f.seedCandidate(t, "cand-1", studentData())

	rec := f.do(t, http.MethodGet, "/v1/candidates?state=pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list candidates: status = %d", rec.Code)
	}
	var listed struct {
		Candidates []*rules.Candidate `json:"candidates"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Candidates) != 1 || listed.Candidates[0].ID != c.ID {
		t.Fatalf("listed %d candidates, want the seeded one", len(listed.Candidates))
	}

	rec = f.do(t, http.MethodPost, "/v1/candidates/"+c.ID+"/approve", reviewRequest{Actor: "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d (body %q)", rec.Code, rec.Body.String())
	}
	var rs rules.RuleSet
	decodeBody(t, rec, &rs)
	if rs.Version != 1 {
		t.Errorf("approved version = %d, want 1", rs.Version)
	}

	// Second decision on the same candidate conflicts.
	rec = f.do(t, http.MethodPost, "/v1/candidates/"+c.ID+"/approve", reviewRequest{Actor: "bob"})
	if rec.Code != http.StatusConflict {
		t.Errorf("re-approve: status = %d, want 409", rec.Code)
	}
}

func TestServer_ApproveRequiresActor(t *testing.T) {
	f := newFixture(t)
	c := f.seedCandidate(t, "cand-1", studentData())

	rec := f.do(t, http.MethodPost, "/v1/candidates/"+c.ID+"/approve", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServer_RejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	c := f.seedCandidate(t, "cand-1", studentData())

	rec := f.do(t, http.MethodPost, "/v1/candidates/"+c.ID+"/reject", reviewRequest{Actor: "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("without reason: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/candidates/"+c.ID+"/reject", reviewRequest{Actor: "alice", Reason: "source page looked stale"})
	if rec.Code != http.StatusOK {
		t.Fatalf("with reason: status = %d (body %q)", rec.Code, rec.Body.String())
	}

	got, err := f.lifecycle.GetCandidate(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get candidate: %v", err)
	}
	if got.State != rules.StateRejected {
		t.Errorf("candidate state = %s, want rejected", got.State)
	}
}

func TestServer_CandidateNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/candidates/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestServer_ListCandidatesRejectsUnknownState(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/candidates?state=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServer_HistoryAndChangeLog(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 2; i++ {
		c := f.seedCandidate(t, fmt.Sprintf("cand-%d", i), studentData())
		if _, err := f.lifecycle.Approve(context.Background(), c.ID, "alice"); err != nil {
			t.Fatalf("approve %d: %v", i, err)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/rulesets/history?country=DE&category=student", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}
	var history struct {
		RuleSets []*rules.RuleSet `json:"ruleSets"`
	}
	decodeBody(t, rec, &history)
	if len(history.RuleSets) != 2 {
		t.Fatalf("history has %d versions, want 2", len(history.RuleSets))
	}
	if history.RuleSets[0].Version != 2 {
		t.Errorf("newest version = %d, want 2", history.RuleSets[0].Version)
	}

	rec = f.do(t, http.MethodGet, "/v1/rulesets/changelog?country=DE&category=student", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("changelog: status = %d", rec.Code)
	}
	var log struct {
		Entries []*rules.ChangeLogEntry `json:"entries"`
	}
	decodeBody(t, rec, &log)
	if len(log.Entries) != 2 {
		t.Errorf("changelog has %d entries, want 2", len(log.Entries))
	}
}

func TestServer_SourceEndpoints(t *testing.T) {
	f := newFixture(t)

	src := registry.Source{
		ID:          "de-student",
		Name:        "German student visa page",
		URL:         "https://example.test/de-student",
		CountryCode: "DE",
		Category:    "student",
	}
	rec := f.do(t, http.MethodPost, "/v1/sources", src)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d (body %q)", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/v1/sources", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var listed struct {
		Sources []*registry.Source `json:"sources"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Sources) != 1 || listed.Sources[0].ID != "de-student" {
		t.Fatalf("listed %d sources, want the registered one", len(listed.Sources))
	}

	rec = f.do(t, http.MethodGet, "/v1/sources/de-student", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: status = %d, want 200", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/v1/sources/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get missing: status = %d, want 404", rec.Code)
	}
}

func TestServer_RegisterSourceValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/sources", registry.Source{ID: "no-url"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_source") {
		t.Errorf("body = %q, want invalid_source code", rec.Body.String())
	}
}

func TestServer_ListSnapshots(t *testing.T) {
	f := newFixture(t)

	src := &registry.Source{
		ID:          "de-student",
		URL:         "https://example.test/de-student",
		CountryCode: "DE",
		Category:    "student",
	}
	if err := f.registry.Register(context.Background(), src); err != nil {
		t.Fatalf("register: %v", err)
	}
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		content := fmt.Sprintf("page revision %d", i)
		if _, err := f.registry.RecordSuccess(context.Background(), src.ID, src.URL, "Title", content, len(content), 200, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("record success %d: %v", i, err)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/sources/de-student/snapshots?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rec.Code, rec.Body.String())
	}
	var listed struct {
		Snapshots []*registry.Snapshot `json:"snapshots"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Snapshots) != 2 {
		t.Fatalf("got %d snapshots, want limit of 2", len(listed.Snapshots))
	}

	rec = f.do(t, http.MethodGet, "/v1/sources/de-student/snapshots?limit=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/v1/sources/missing/snapshots", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing source: status = %d, want 404", rec.Code)
	}
}
