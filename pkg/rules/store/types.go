package store

import (
	"context"
	"time"

	"lumina-hq/polaris/pkg/rules"
)

// Store is the persistence contract for the rule lifecycle.
type Store interface {
	// CreateCandidate inserts a pending candidate. If a candidate already
	// exists for the same snapshot it returns DuplicateCandidateError and
	// writes nothing; extraction relies on this for idempotency.
	CreateCandidate(ctx context.Context, c *rules.Candidate) error

	// GetCandidate returns a candidate by id, or NotFoundError.
	GetCandidate(ctx context.Context, id string) (*rules.Candidate, error)

	// GetCandidateBySnapshot returns the candidate derived from a
	// snapshot, or NotFoundError when the snapshot has none.
	GetCandidateBySnapshot(ctx context.Context, snapshotID string) (*rules.Candidate, error)

	// ListCandidates returns candidates in the given state, newest first.
	// An empty state lists all candidates.
	ListCandidates(ctx context.Context, state rules.ApprovalState) ([]*rules.Candidate, error)

	// ApproveCandidate promotes a pending candidate to the next rule set
	// version for its key. In one atomic unit it revokes approval from
	// every existing version of the key, inserts the new approved rule
	// set, appends a change-log entry carrying the candidate's diff, and
	// marks the candidate approved. Returns ApprovalConflictError without
	// any state change when the candidate is not pending.
	ApproveCandidate(ctx context.Context, candidateID, actor string, now time.Time) (*rules.RuleSet, error)

	// RejectCandidate terminally rejects a pending candidate. Existing
	// rule sets are untouched. Returns ApprovalConflictError when the
	// candidate is not pending.
	RejectCandidate(ctx context.Context, candidateID, actor, reason string, now time.Time) error

	// ActiveRuleSet returns the approved rule set for a key, or
	// NotFoundError when the key has no approved version.
	ActiveRuleSet(ctx context.Context, key rules.Key) (*rules.RuleSet, error)

	// GetRuleSet returns a rule set by id, or NotFoundError.
	GetRuleSet(ctx context.Context, id string) (*rules.RuleSet, error)

	// ListRuleSets returns every version for a key, highest version first.
	ListRuleSets(ctx context.Context, key rules.Key) ([]*rules.RuleSet, error)

	// ListChangeLog returns the approval history for a key, newest first.
	ListChangeLog(ctx context.Context, key rules.Key) ([]*rules.ChangeLogEntry, error)

	// Close releases backend resources.
	Close() error
}
