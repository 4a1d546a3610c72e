package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/rules/store"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// Service coordinates the candidate review workflow on top of a rules
// store. All review decisions for the same country/category key are
// serialized through a per-key mutex, so version numbers are assigned
// without gaps or duplicates even under concurrent reviewers.
type Service struct {
	store   store.Store
	logger  *logging.Logger
	metrics *metrics.Collector

	// keyLocks serializes review decisions per rule key.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger.WithComponent("lifecycle")
	}
}

// WithMetrics sets the metrics collector used by the service.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// NewService creates a lifecycle service backed by the given store.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		keyLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// keyLock returns the mutex guarding review decisions for a key,
// creating it on first use.
func (s *Service) keyLock(key rules.Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	lock, ok := s.keyLocks[k]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[k] = lock
	}
	return lock
}

// SubmitCandidate registers a new extraction candidate in the review
// queue. A candidate derived from an already-processed snapshot is
// rejected with a DuplicateCandidateError.
func (s *Service) SubmitCandidate(ctx context.Context, c *rules.Candidate) error {
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "candidate submitted",
			"candidate_id", c.ID,
			"key", c.Key.String(),
			"snapshot_id", c.SnapshotID,
			"confidence", c.Confidence,
		)
	}
	s.updatePendingGauge(ctx)
	return nil
}

// Approve promotes a pending candidate to the active rule set for its
// key. The previous active version, if any, is superseded in the same
// operation.
func (s *Service) Approve(ctx context.Context, candidateID, actor string) (*rules.RuleSet, error) {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	lock := s.keyLock(c.Key)
	lock.Lock()
	defer lock.Unlock()

	rs, err := s.store.ApproveCandidate(ctx, candidateID, actor, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "approval failed",
				"candidate_id", candidateID,
				"actor", actor,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "candidate approved",
			"candidate_id", candidateID,
			"key", rs.Key.String(),
			"version", rs.Version,
			"actor", actor,
		)
	}
	if s.metrics != nil {
		s.metrics.RecordReview("approved")
		s.metrics.UpdateActiveVersion(rs.Key.CountryCode, rs.Key.Category, rs.Version)
	}
	s.updatePendingGauge(ctx)

	return rs, nil
}

// Reject terminally rejects a pending candidate. The rejection reason is
// recorded on the candidate for audit.
func (s *Service) Reject(ctx context.Context, candidateID, actor, reason string) error {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}

	lock := s.keyLock(c.Key)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.RejectCandidate(ctx, candidateID, actor, reason, time.Now().UTC()); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "candidate rejected",
			"candidate_id", candidateID,
			"key", c.Key.String(),
			"actor", actor,
			"reason", reason,
		)
	}
	if s.metrics != nil {
		s.metrics.RecordReview("rejected")
	}
	s.updatePendingGauge(ctx)

	return nil
}

// ActiveRuleSet returns the approved rule set for a key, or a
// NotFoundError when no version has been approved yet.
func (s *Service) ActiveRuleSet(ctx context.Context, key rules.Key) (*rules.RuleSet, error) {
	return s.store.ActiveRuleSet(ctx, key)
}

// GetCandidate returns a candidate by id.
func (s *Service) GetCandidate(ctx context.Context, id string) (*rules.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// CandidateBySnapshot returns the candidate extracted from the given
// snapshot, if one exists.
func (s *Service) CandidateBySnapshot(ctx context.Context, snapshotID string) (*rules.Candidate, error) {
	return s.store.GetCandidateBySnapshot(ctx, snapshotID)
}

// PendingCandidates returns all candidates awaiting review, newest first.
func (s *Service) PendingCandidates(ctx context.Context) ([]*rules.Candidate, error) {
	return s.store.ListCandidates(ctx, rules.StatePending)
}

// Candidates returns candidates in the given state, newest first. An
// empty state returns every candidate.
func (s *Service) Candidates(ctx context.Context, state rules.ApprovalState) ([]*rules.Candidate, error) {
	return s.store.ListCandidates(ctx, state)
}

// History returns every stored version for a key, highest version first.
func (s *Service) History(ctx context.Context, key rules.Key) ([]*rules.RuleSet, error) {
	return s.store.ListRuleSets(ctx, key)
}

// ChangeLog returns the approval history for a key, newest first.
func (s *Service) ChangeLog(ctx context.Context, key rules.Key) ([]*rules.ChangeLogEntry, error) {
	return s.store.ListChangeLog(ctx, key)
}

// Diff computes the change set a candidate would apply against the
// currently active rule set for its key.
func (s *Service) Diff(ctx context.Context, candidateID string) (*rules.Diff, error) {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if c.Diff != nil {
		return c.Diff, nil
	}
	return nil, fmt.Errorf("candidate %s has no recorded diff", candidateID)
}

func (s *Service) updatePendingGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	pending, err := s.store.ListCandidates(ctx, rules.StatePending)
	if err != nil {
		return
	}
	s.metrics.UpdatePendingCandidates(len(pending))
}
