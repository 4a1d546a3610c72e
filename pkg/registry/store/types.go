package store

import (
	"context"
	"time"

	"lumina-hq/polaris/pkg/registry"
)

// Store persists sources and snapshots.
type Store interface {
	// UpsertSource inserts a source or updates its declared fields
	// (name, url, country, category, priority, interval). Fetch state
	// (last status, last error, timestamps) is preserved on update.
	// Upserting always marks the source active.
	UpsertSource(ctx context.Context, src *registry.Source) error

	// GetSource retrieves a source by ID. Returns a
	// registry.NotFoundError when absent.
	GetSource(ctx context.Context, id string) (*registry.Source, error)

	// ListSources returns all registered sources.
	ListSources(ctx context.Context) ([]*registry.Source, error)

	// DeactivateSource takes a source out of scheduling. The source
	// row and its snapshots are retained for audit.
	DeactivateSource(ctx context.Context, id string) error

	// RecordFetchOutcome atomically updates a source's fetch state and,
	// when snap is non-nil, stores the snapshot in the same operation.
	// fetchErr is stored only when status is StatusFailed.
	RecordFetchOutcome(ctx context.Context, sourceID string, status registry.FetchStatus, fetchErr string, at time.Time, snap *registry.Snapshot) error

	// GetSnapshot retrieves a snapshot by ID.
	GetSnapshot(ctx context.Context, id string) (*registry.Snapshot, error)

	// LatestSnapshot returns the most recent successful snapshot for a
	// source. Returns a registry.NotFoundError when the source has none.
	LatestSnapshot(ctx context.Context, sourceID string) (*registry.Snapshot, error)

	// ListSnapshots returns up to limit snapshots for a source, newest
	// first. A limit of 0 returns all.
	ListSnapshots(ctx context.Context, sourceID string, limit int) ([]*registry.Snapshot, error)

	// Close releases resources held by the store.
	Close() error
}
