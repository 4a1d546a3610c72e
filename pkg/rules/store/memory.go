package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina-hq/polaris/pkg/rules"
)

// MemoryStore implements the Store interface using in-memory maps.
// It is intended for tests; all operations run under one mutex, which
// also gives the approval swap its atomicity.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*rules.Candidate
	bySnapshot map[string]string
	ruleSets   map[string]*rules.RuleSet
	changeLog  []*rules.ChangeLogEntry
}

// NewMemoryStore creates a new in-memory rule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string]*rules.Candidate),
		bySnapshot: make(map[string]string),
		ruleSets:   make(map[string]*rules.RuleSet),
	}
}

// CreateCandidate inserts a pending candidate, enforcing one per snapshot.
func (s *MemoryStore) CreateCandidate(ctx context.Context, c *rules.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.bySnapshot[c.SnapshotID]; ok {
		return &rules.DuplicateCandidateError{
			SnapshotID: c.SnapshotID,
			ExistingID: existingID,
		}
	}

	cp := cloneCandidate(c)
	s.candidates[c.ID] = cp
	s.bySnapshot[c.SnapshotID] = c.ID
	return nil
}

// GetCandidate retrieves a candidate by id.
func (s *MemoryStore) GetCandidate(ctx context.Context, id string) (*rules.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: id}
	}
	return cloneCandidate(c), nil
}

// GetCandidateBySnapshot retrieves the candidate derived from a snapshot.
func (s *MemoryStore) GetCandidateBySnapshot(ctx context.Context, snapshotID string) (*rules.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySnapshot[snapshotID]
	if !ok {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: snapshotID}
	}
	return cloneCandidate(s.candidates[id]), nil
}

// ListCandidates returns candidates in the given state, newest first.
func (s *MemoryStore) ListCandidates(ctx context.Context, state rules.ApprovalState) ([]*rules.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*rules.Candidate
	for _, c := range s.candidates {
		if state != "" && c.State != state {
			continue
		}
		out = append(out, cloneCandidate(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApproveCandidate promotes a pending candidate under the store mutex.
func (s *MemoryStore) ApproveCandidate(ctx context.Context, candidateID, actor string, now time.Time) (*rules.RuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[candidateID]
	if !ok {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if c.State != rules.StatePending {
		return nil, &rules.ApprovalConflictError{CandidateID: candidateID, State: c.State}
	}

	maxVersion := 0
	for _, rs := range s.ruleSets {
		if rs.Key == c.Key && rs.Version > maxVersion {
			maxVersion = rs.Version
		}
	}

	for _, rs := range s.ruleSets {
		if rs.Key == c.Key && rs.ApprovalState == rules.StateApproved {
			rs.ApprovalState = rules.StateSuperseded
		}
	}

	approvedAt := now
	rs := &rules.RuleSet{
		ID:            uuid.NewString(),
		Key:           c.Key,
		Version:       maxVersion + 1,
		Data:          c.Data,
		ApprovalState: rules.StateApproved,
		ApprovedAt:    &approvedAt,
		ApprovedBy:    actor,
		SourceID:      c.SourceID,
		CreatedAt:     now,
	}
	s.ruleSets[rs.ID] = rs

	var diff rules.Diff
	if c.Diff != nil {
		diff = *c.Diff
	}
	s.changeLog = append(s.changeLog, &rules.ChangeLogEntry{
		ID:        uuid.NewString(),
		RuleSetID: rs.ID,
		Key:       rs.Key,
		Version:   rs.Version,
		Diff:      diff,
		Actor:     actor,
		CreatedAt: now,
	})

	c.State = rules.StateApproved
	c.ReviewedBy = actor
	reviewedAt := now
	c.ReviewedAt = &reviewedAt

	return cloneRuleSet(rs), nil
}

// RejectCandidate terminally rejects a pending candidate.
func (s *MemoryStore) RejectCandidate(ctx context.Context, candidateID, actor, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[candidateID]
	if !ok {
		return &rules.NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if c.State != rules.StatePending {
		return &rules.ApprovalConflictError{CandidateID: candidateID, State: c.State}
	}

	c.State = rules.StateRejected
	c.ReviewedBy = actor
	reviewedAt := now
	c.ReviewedAt = &reviewedAt
	c.RejectReason = reason
	return nil
}

// ActiveRuleSet returns the approved rule set for a key.
func (s *MemoryStore) ActiveRuleSet(ctx context.Context, key rules.Key) (*rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rs := range s.ruleSets {
		if rs.Key == key && rs.ApprovalState == rules.StateApproved {
			return cloneRuleSet(rs), nil
		}
	}
	return nil, &rules.NotFoundError{Kind: "rule_set", ID: key.String()}
}

// GetRuleSet returns a rule set by id.
func (s *MemoryStore) GetRuleSet(ctx context.Context, id string) (*rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.ruleSets[id]
	if !ok {
		return nil, &rules.NotFoundError{Kind: "rule_set", ID: id}
	}
	return cloneRuleSet(rs), nil
}

// ListRuleSets returns every version for a key, highest version first.
func (s *MemoryStore) ListRuleSets(ctx context.Context, key rules.Key) ([]*rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*rules.RuleSet
	for _, rs := range s.ruleSets {
		if rs.Key == key {
			out = append(out, cloneRuleSet(rs))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version > out[j].Version
	})
	return out, nil
}

// ListChangeLog returns the approval history for a key, newest first.
func (s *MemoryStore) ListChangeLog(ctx context.Context, key rules.Key) ([]*rules.ChangeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*rules.ChangeLogEntry
	for _, e := range s.changeLog {
		if e.Key == key {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version > out[j].Version
	})
	return out, nil
}

// Close releases resources held by the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = make(map[string]*rules.Candidate)
	s.bySnapshot = make(map[string]string)
	s.ruleSets = make(map[string]*rules.RuleSet)
	s.changeLog = nil
	return nil
}

func cloneCandidate(c *rules.Candidate) *rules.Candidate {
	cp := *c
	if c.Diff != nil {
		d := *c.Diff
		cp.Diff = &d
	}
	return &cp
}

func cloneRuleSet(rs *rules.RuleSet) *rules.RuleSet {
	cp := *rs
	return &cp
}
