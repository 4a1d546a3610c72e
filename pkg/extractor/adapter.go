package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lumina-hq/polaris/pkg/registry"
	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/rules/diff"
	"lumina-hq/polaris/pkg/rules/lifecycle"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// Adapter drives extraction for one snapshot: oracle call, payload
// hardening, diff against the active rule set, candidate submission.
type Adapter struct {
	oracle    Oracle
	lifecycle *lifecycle.Service
	logger    *logging.Logger
	metrics   *metrics.Collector
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithAdapterLogger attaches a logger to the adapter.
func WithAdapterLogger(logger *logging.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger.WithComponent("extractor")
	}
}

// WithAdapterMetrics attaches a metrics collector to the adapter.
func WithAdapterMetrics(collector *metrics.Collector) AdapterOption {
	return func(a *Adapter) {
		a.metrics = collector
	}
}

// NewAdapter creates an extraction adapter. The oracle may be nil, in
// which case ProcessSnapshot fails with ErrNoOracle; the rest of the
// system still serves previously approved rule sets.
func NewAdapter(oracle Oracle, lc *lifecycle.Service, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		oracle:    oracle,
		lifecycle: lc,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessSnapshot extracts rules from a snapshot and submits the result
// as a pending candidate. Re-processing a snapshot that already has a
// candidate returns the existing candidate without another oracle call.
func (a *Adapter) ProcessSnapshot(ctx context.Context, src *registry.Source, snap *registry.Snapshot) (*rules.Candidate, error) {
	if existing, err := a.lifecycle.CandidateBySnapshot(ctx, snap.ID); err == nil {
		if a.logger != nil {
			a.logger.DebugContext(ctx, "snapshot already extracted",
				"snapshot_id", snap.ID,
				"candidate_id", existing.ID,
			)
		}
		return existing, nil
	} else if !rules.IsNotFound(err) {
		return nil, err
	}

	if a.oracle == nil {
		return nil, ErrNoOracle
	}

	key := rules.Key{CountryCode: src.CountryCode, Category: src.Category}

	var prev *rules.RuleSetData
	active, err := a.lifecycle.ActiveRuleSet(ctx, key)
	switch {
	case err == nil:
		prev = &active.Data
	case rules.IsNotFound(err):
		// First extraction for this key.
	default:
		return nil, err
	}

	start := time.Now()
	raw, err := a.oracle.Extract(ctx, snap.Content, prev)
	if a.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordOracleCall("extract", status, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("oracle extraction for snapshot %s failed: %w", snap.ID, err)
	}

	data, err := ParseRuleSet(string(raw))
	if err != nil {
		var se *ExtractionSchemaError
		if errors.As(err, &se) {
			se.SnapshotID = snap.ID
		}
		return nil, err
	}

	candidate := &rules.Candidate{
		ID:         uuid.NewString(),
		SnapshotID: snap.ID,
		SourceID:   src.ID,
		Key:        key,
		Data:       data,
		Confidence: Confidence(data, len(snap.Content)),
		State:      rules.StatePending,
		CreatedAt:  time.Now().UTC(),
	}

	d := diff.Compute(prev, data)
	candidate.Diff = &d

	if err := a.lifecycle.SubmitCandidate(ctx, candidate); err != nil {
		var dup *rules.DuplicateCandidateError
		if errors.As(err, &dup) {
			// Lost a race with a concurrent extraction of the same snapshot.
			return a.lifecycle.CandidateBySnapshot(ctx, snap.ID)
		}
		return nil, err
	}

	if a.logger != nil {
		a.logger.InfoContext(ctx, "candidate submitted",
			"candidate_id", candidate.ID,
			"snapshot_id", snap.ID,
			"key", key.String(),
			"confidence", candidate.Confidence,
			"requirements", len(data.Requirements),
		)
	}
	return candidate, nil
}
