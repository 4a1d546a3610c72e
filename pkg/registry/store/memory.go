package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lumina-hq/polaris/pkg/registry"
)

// MemoryStore implements Store using in-memory maps. It is intended for
// tests and for the "memory" storage backend.
type MemoryStore struct {
	mu        sync.RWMutex
	sources   map[string]*registry.Source
	snapshots map[string]*registry.Snapshot
	bySource  map[string][]string
}

// NewMemoryStore creates a new in-memory registry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:   make(map[string]*registry.Source),
		snapshots: make(map[string]*registry.Snapshot),
		bySource:  make(map[string][]string),
	}
}

// UpsertSource inserts or updates a source's declared fields.
func (s *MemoryStore) UpsertSource(ctx context.Context, src *registry.Source) error {
	if err := src.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.sources[src.ID]
	if !ok {
		cp := *src
		cp.Active = true
		cp.LastStatus = registry.StatusNever
		cp.LastFetchedAt = nil
		cp.LastError = ""
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.sources[src.ID] = &cp
		return nil
	}

	existing.Name = src.Name
	existing.URL = src.URL
	existing.CountryCode = src.CountryCode
	existing.Category = src.Category
	existing.Priority = src.Priority
	existing.FetchInterval = src.FetchInterval
	existing.Active = true
	existing.UpdatedAt = now
	return nil
}

// GetSource retrieves a source by ID.
func (s *MemoryStore) GetSource(ctx context.Context, id string) (*registry.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[id]
	if !ok {
		return nil, &registry.NotFoundError{Kind: "source", ID: id}
	}
	cp := *src
	return &cp, nil
}

// ListSources returns all registered sources ordered by priority.
func (s *MemoryStore) ListSources(ctx context.Context) ([]*registry.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*registry.Source, 0, len(s.sources))
	for _, src := range s.sources {
		cp := *src
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeactivateSource takes a source out of scheduling. The source and
// its snapshots are retained.
func (s *MemoryStore) DeactivateSource(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[id]
	if !ok {
		return &registry.NotFoundError{Kind: "source", ID: id}
	}
	src.Active = false
	src.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordFetchOutcome updates a source's fetch state and stores the
// snapshot, when given, under the same lock.
func (s *MemoryStore) RecordFetchOutcome(ctx context.Context, sourceID string, status registry.FetchStatus, fetchErr string, at time.Time, snap *registry.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[sourceID]
	if !ok {
		return &registry.NotFoundError{Kind: "source", ID: sourceID}
	}

	fetchedAt := at.UTC()
	src.LastStatus = status
	src.LastFetchedAt = &fetchedAt
	src.UpdatedAt = time.Now().UTC()
	if status == registry.StatusFailed {
		src.LastError = fetchErr
	} else {
		src.LastError = ""
	}

	if snap != nil {
		cp := *snap
		s.snapshots[snap.ID] = &cp
		s.bySource[snap.SourceID] = append(s.bySource[snap.SourceID], snap.ID)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (s *MemoryStore) GetSnapshot(ctx context.Context, id string) (*registry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, &registry.NotFoundError{Kind: "snapshot", ID: id}
	}
	cp := *snap
	return &cp, nil
}

// LatestSnapshot returns the most recent successful snapshot for a
// source.
func (s *MemoryStore) LatestSnapshot(ctx context.Context, sourceID string) (*registry.Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, sourceID, 0)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.Status == registry.StatusSuccess {
			return snap, nil
		}
	}
	return nil, &registry.NotFoundError{Kind: "snapshot", ID: sourceID}
}

// ListSnapshots returns up to limit snapshots for a source, newest first.
func (s *MemoryStore) ListSnapshots(ctx context.Context, sourceID string, limit int) ([]*registry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySource[sourceID]
	out := make([]*registry.Snapshot, 0, len(ids))
	for _, id := range ids {
		cp := *s.snapshots[id]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close releases resources held by the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources = make(map[string]*registry.Source)
	s.snapshots = make(map[string]*registry.Snapshot)
	s.bySource = make(map[string][]string)
	return nil
}
