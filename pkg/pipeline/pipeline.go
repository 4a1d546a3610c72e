package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"lumina-hq/polaris/pkg/extractor"
	"lumina-hq/polaris/pkg/fetcher"
	"lumina-hq/polaris/pkg/registry"
	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// Pipeline wires the registry, fetcher, and extraction adapter into
// runnable stages.
type Pipeline struct {
	registry    *registry.Service
	fetcher     fetcher.Fetcher
	adapter     *extractor.Adapter
	logger      *logging.Logger
	metrics     *metrics.Collector
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger to the pipeline.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger.WithComponent("pipeline")
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = collector
	}
}

// WithConcurrency bounds the number of sources processed in parallel
// during a scan.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// New creates a pipeline over the given collaborators.
func New(reg *registry.Service, f fetcher.Fetcher, adapter *extractor.Adapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:    reg,
		fetcher:     f,
		adapter:     adapter,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunFetch fetches one source and stores a snapshot when the content
// changed. It returns nil without error when the content is unchanged.
// Fetch failures are recorded on the source before being returned.
func (p *Pipeline) RunFetch(ctx context.Context, sourceID string) (*registry.Snapshot, error) {
	src, err := p.registry.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithSourceID(ctx, sourceID)

	start := time.Now()
	result, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordFetch(sourceID, "error", time.Since(start), 0)
		}
		httpStatus := 0
		var fe *fetcher.FetchError
		if errors.As(err, &fe) {
			httpStatus = fe.StatusCode
		}
		if recErr := p.registry.RecordFailure(ctx, sourceID, httpStatus, err, time.Now().UTC()); recErr != nil {
			return nil, fmt.Errorf("failed to record fetch failure: %w", recErr)
		}
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.RecordFetch(sourceID, "success", time.Since(start), result.RawSize)
	}

	changed, err := p.registry.ContentChanged(ctx, sourceID, result.Content)
	if err != nil {
		return nil, err
	}
	if !changed {
		if err := p.registry.RecordUnchanged(ctx, sourceID, result.FetchedAt); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return p.registry.RecordSuccess(ctx, sourceID, result.URL, result.Title, result.Content, result.RawSize, result.HTTPStatus, result.FetchedAt)
}

// RunExtract extracts rules from a snapshot into a pending candidate.
// Extracting the same snapshot twice returns the existing candidate.
// An extraction failure is recorded on the owning source.
func (p *Pipeline) RunExtract(ctx context.Context, snapshotID string) (*rules.Candidate, error) {
	snap, err := p.registry.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	src, err := p.registry.Get(ctx, snap.SourceID)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithSourceID(ctx, src.ID)

	start := time.Now()
	candidate, err := p.adapter.ProcessSnapshot(ctx, src, snap)
	if p.metrics != nil {
		status := "success"
		confidence := 0.0
		if err != nil {
			status = "error"
		} else {
			confidence = candidate.Confidence
		}
		p.metrics.RecordExtraction(src.ID, status, time.Since(start), confidence)
	}
	if err != nil {
		if recErr := p.registry.RecordExtractionFailure(ctx, src.ID, err, time.Now().UTC()); recErr != nil {
			return nil, fmt.Errorf("failed to record extraction failure: %w", recErr)
		}
		return nil, err
	}
	return candidate, nil
}

// RunSource runs the fetch stage and, when a new snapshot was captured,
// the extract stage for one source.
func (p *Pipeline) RunSource(ctx context.Context, sourceID string) error {
	snap, err := p.RunFetch(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("fetch stage for source %s: %w", sourceID, err)
	}
	if snap == nil {
		return nil
	}
	if _, err := p.RunExtract(ctx, snap.ID); err != nil {
		return fmt.Errorf("extract stage for snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// ScanResult summarizes one due-source scan.
type ScanResult struct {
	Due       int
	Succeeded int
	Failed    int
}

// Scan processes every due source through a bounded worker group. Per
// source failures are logged and counted but never abort the scan; the
// returned error covers only listing failures.
func (p *Pipeline) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	start := time.Now()

	due, err := p.registry.ListDue(ctx, now)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to list due sources: %w", err)
	}

	result := ScanResult{Due: len(due)}
	if len(due) == 0 {
		if p.metrics != nil {
			p.metrics.RecordPipelineRun(0, time.Since(start))
		}
		return result, nil
	}

	outcomes := make(chan error, len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, src := range due {
		sourceID := src.ID
		g.Go(func() error {
			err := p.RunSource(gctx, sourceID)
			if err != nil && p.logger != nil {
				p.logger.ErrorContext(gctx, "source processing failed",
					"source_id", sourceID,
					"error", err.Error(),
				)
			}
			outcomes <- err
			// Errors are recorded on the owning source; returning nil
			// keeps the group running for the remaining sources.
			return nil
		})
	}
	// Workers always return nil; failures flow through outcomes.
	_ = g.Wait()
	close(outcomes)

	for err := range outcomes {
		if err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	if p.metrics != nil {
		p.metrics.RecordPipelineRun(result.Due, time.Since(start))
	}
	if p.logger != nil {
		p.logger.InfoContext(ctx, "scan completed",
			"due", result.Due,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"duration", time.Since(start).String(),
		)
	}
	return result, nil
}
