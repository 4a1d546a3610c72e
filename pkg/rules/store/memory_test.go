package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"lumina-hq/polaris/pkg/rules"
)

func testCandidate(id, snapshotID string, key rules.Key) *rules.Candidate {
	return &rules.Candidate{
		ID:         id,
		SnapshotID: snapshotID,
		SourceID:   "src-1",
		Key:        key,
		Data: rules.RuleSetData{
			Requirements: []rules.Requirement{
				{DocumentType: "passport", Category: rules.CategoryRequired, Description: "valid passport"},
			},
		},
		Confidence: 0.8,
		State:      rules.StatePending,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestMemoryStore_CreateCandidateDuplicateSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}

	err := s.CreateCandidate(ctx, testCandidate("c2", "snap-1", key))
	var dup *rules.DuplicateCandidateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateCandidateError, got %v", err)
	}
	if dup.ExistingID != "c1" {
		t.Errorf("ExistingID = %q, want %q", dup.ExistingID, "c1")
	}
}

func TestMemoryStore_ApproveCandidate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}

	rs, err := s.ApproveCandidate(ctx, "c1", "alice", now)
	if err != nil {
		t.Fatalf("ApproveCandidate() error = %v", err)
	}
	if rs.Version != 1 {
		t.Errorf("Version = %d, want 1", rs.Version)
	}
	if rs.ApprovalState != rules.StateApproved {
		t.Errorf("ApprovalState = %q, want %q", rs.ApprovalState, rules.StateApproved)
	}
	if rs.ApprovedBy != "alice" {
		t.Errorf("ApprovedBy = %q, want %q", rs.ApprovedBy, "alice")
	}

	c, err := s.GetCandidate(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCandidate() error = %v", err)
	}
	if c.State != rules.StateApproved {
		t.Errorf("candidate State = %q, want %q", c.State, rules.StateApproved)
	}
	if c.ReviewedBy != "alice" {
		t.Errorf("ReviewedBy = %q, want %q", c.ReviewedBy, "alice")
	}
}

func TestMemoryStore_SingleApprovedPerKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	for i, snap := range []string{"snap-1", "snap-2", "snap-3"} {
		id := string(rune('a' + i))
		if err := s.CreateCandidate(ctx, testCandidate(id, snap, key)); err != nil {
			t.Fatalf("CreateCandidate(%s) error = %v", id, err)
		}
		if _, err := s.ApproveCandidate(ctx, id, "alice", now); err != nil {
			t.Fatalf("ApproveCandidate(%s) error = %v", id, err)
		}
	}

	versions, err := s.ListRuleSets(ctx, key)
	if err != nil {
		t.Fatalf("ListRuleSets() error = %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("len(versions) = %d, want 3", len(versions))
	}

	approved := 0
	for _, rs := range versions {
		if rs.ApprovalState == rules.StateApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Errorf("approved count = %d, want exactly 1", approved)
	}

	active, err := s.ActiveRuleSet(ctx, key)
	if err != nil {
		t.Fatalf("ActiveRuleSet() error = %v", err)
	}
	if active.Version != 3 {
		t.Errorf("active Version = %d, want 3", active.Version)
	}
}

func TestMemoryStore_VersionsStrictlyIncreasing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "FR", Category: "student"}
	now := time.Now().UTC()

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if _, err := s.ApproveCandidate(ctx, "c1", "alice", now); err != nil {
		t.Fatalf("ApproveCandidate() error = %v", err)
	}

	// A rejection in between must not consume or reuse a version number.
	if err := s.CreateCandidate(ctx, testCandidate("c2", "snap-2", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if err := s.RejectCandidate(ctx, "c2", "bob", "low confidence", now); err != nil {
		t.Fatalf("RejectCandidate() error = %v", err)
	}

	if err := s.CreateCandidate(ctx, testCandidate("c3", "snap-3", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	rs, err := s.ApproveCandidate(ctx, "c3", "alice", now)
	if err != nil {
		t.Fatalf("ApproveCandidate() error = %v", err)
	}
	if rs.Version != 2 {
		t.Errorf("Version = %d, want 2", rs.Version)
	}
}

func TestMemoryStore_ApproveConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if _, err := s.ApproveCandidate(ctx, "c1", "alice", now); err != nil {
		t.Fatalf("ApproveCandidate() error = %v", err)
	}

	_, err := s.ApproveCandidate(ctx, "c1", "bob", now)
	if !rules.IsApprovalConflict(err) {
		t.Fatalf("expected ApprovalConflictError, got %v", err)
	}

	err = s.RejectCandidate(ctx, "c1", "bob", "changed my mind", now)
	if !rules.IsApprovalConflict(err) {
		t.Fatalf("expected ApprovalConflictError on reject, got %v", err)
	}
}

func TestMemoryStore_RejectCandidate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if err := s.RejectCandidate(ctx, "c1", "bob", "extraction looks wrong", now); err != nil {
		t.Fatalf("RejectCandidate() error = %v", err)
	}

	c, err := s.GetCandidate(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCandidate() error = %v", err)
	}
	if c.State != rules.StateRejected {
		t.Errorf("State = %q, want %q", c.State, rules.StateRejected)
	}
	if c.RejectReason != "extraction looks wrong" {
		t.Errorf("RejectReason = %q", c.RejectReason)
	}

	// No rule set version should exist for the key.
	if _, err := s.ActiveRuleSet(ctx, key); !rules.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestMemoryStore_ChangeLog(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	for i, snap := range []string{"snap-1", "snap-2"} {
		id := string(rune('a' + i))
		c := testCandidate(id, snap, key)
		c.Diff = &rules.Diff{
			Added: []rules.Requirement{{DocumentType: "photo", Category: rules.CategoryRequired}},
		}
		if err := s.CreateCandidate(ctx, c); err != nil {
			t.Fatalf("CreateCandidate(%s) error = %v", id, err)
		}
		if _, err := s.ApproveCandidate(ctx, id, "alice", now); err != nil {
			t.Fatalf("ApproveCandidate(%s) error = %v", id, err)
		}
	}

	entries, err := s.ListChangeLog(ctx, key)
	if err != nil {
		t.Fatalf("ListChangeLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Version != 2 || entries[1].Version != 1 {
		t.Errorf("versions = [%d %d], want [2 1]", entries[0].Version, entries[1].Version)
	}
	if len(entries[0].Diff.Added) != 1 {
		t.Errorf("Diff.Added lost on change log entry")
	}
}

func TestMemoryStore_ListCandidatesByState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := rules.Key{CountryCode: "DE", Category: "tourist"}
	now := time.Now().UTC()

	if err := s.CreateCandidate(ctx, testCandidate("c1", "snap-1", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if err := s.CreateCandidate(ctx, testCandidate("c2", "snap-2", key)); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	if err := s.RejectCandidate(ctx, "c2", "bob", "dup", now); err != nil {
		t.Fatalf("RejectCandidate() error = %v", err)
	}

	pending, err := s.ListCandidates(ctx, rules.StatePending)
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "c1" {
		t.Errorf("pending = %v, want single c1", pending)
	}

	all, err := s.ListCandidates(ctx, "")
	if err != nil {
		t.Fatalf("ListCandidates(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}
