package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"

	"lumina-hq/polaris/pkg/telemetry/logging"
)

// maxErrorLen bounds the failure message recorded on a source.
const maxErrorLen = 500

// Store is the persistence interface the service requires. It matches
// the registry/store package.
type Store interface {
	UpsertSource(ctx context.Context, src *Source) error
	GetSource(ctx context.Context, id string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeactivateSource(ctx context.Context, id string) error
	RecordFetchOutcome(ctx context.Context, sourceID string, status FetchStatus, fetchErr string, at time.Time, snap *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, sourceID string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, sourceID string, limit int) ([]*Snapshot, error)
	Close() error
}

// Service coordinates source scheduling and snapshot capture on top of
// a Store.
type Service struct {
	store           Store
	logger          *logging.Logger
	defaultInterval time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.WithComponent("registry")
	}
}

// WithDefaultInterval sets the fetch interval applied to sources that do
// not declare one.
func WithDefaultInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.defaultInterval = d
	}
}

// NewService creates a registry service backed by the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:           store,
		defaultInterval: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and upserts a source. Sources without a declared
// interval get the service default.
func (s *Service) Register(ctx context.Context, src *Source) error {
	if src.FetchInterval == 0 {
		src.FetchInterval = s.defaultInterval
	}
	if err := s.store.UpsertSource(ctx, src); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "source registered",
			"source_id", src.ID,
			"country", src.CountryCode,
			"category", src.Category,
		)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *Service) Get(ctx context.Context, id string) (*Source, error) {
	return s.store.GetSource(ctx, id)
}

// List returns all registered sources.
func (s *Service) List(ctx context.Context) ([]*Source, error) {
	return s.store.ListSources(ctx)
}

// Deactivate takes a source out of scheduling. The source and its
// snapshots are kept; registering it again reactivates it.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.store.DeactivateSource(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "source deactivated", "source_id", id)
	}
	return nil
}

// ListDue returns the sources due for a fetch at the given time, ordered
// by priority (highest first) and, within a priority, by staleness
// (never-fetched first, then oldest fetch first).
func (s *Service) ListDue(ctx context.Context, now time.Time) ([]*Source, error) {
	all, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	var due []*Source
	for _, src := range all {
		if src.Due(now) {
			due = append(due, src)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		ti, tj := due[i].LastFetchedAt, due[j].LastFetchedAt
		switch {
		case ti == nil && tj == nil:
			return due[i].ID < due[j].ID
		case ti == nil:
			return true
		case tj == nil:
			return false
		default:
			return ti.Before(*tj)
		}
	})

	return due, nil
}

// RecordSuccess stores a snapshot of the fetched content and marks the
// source's last fetch as successful, in one store operation. It returns
// the stored snapshot.
func (s *Service) RecordSuccess(ctx context.Context, sourceID, url, title, content string, rawSize, httpStatus int, at time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		ID:          uuid.NewString(),
		SourceID:    sourceID,
		Status:      StatusSuccess,
		HTTPStatus:  httpStatus,
		URL:         url,
		Title:       title,
		Content:     content,
		RawSize:     rawSize,
		ContentHash: HashContent(content),
		FetchedAt:   at.UTC(),
	}

	if err := s.store.RecordFetchOutcome(ctx, sourceID, StatusSuccess, "", at, snap); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "snapshot captured",
			"source_id", sourceID,
			"snapshot_id", snap.ID,
			"content_hash", snap.ContentHash,
			"raw_size", rawSize,
		)
	}
	return snap, nil
}

// RecordUnchanged marks a successful fetch whose content matched the
// latest snapshot. The fetch timestamp advances but no snapshot is
// stored.
func (s *Service) RecordUnchanged(ctx context.Context, sourceID string, at time.Time) error {
	if err := s.store.RecordFetchOutcome(ctx, sourceID, StatusSuccess, "", at, nil); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "content unchanged",
			"source_id", sourceID,
		)
	}
	return nil
}

// RecordFailure marks the source's last fetch as failed and stores a
// failed attempt record alongside it, in one store operation. The error
// message is truncated before storing.
func (s *Service) RecordFailure(ctx context.Context, sourceID string, httpStatus int, fetchErr error, at time.Time) error {
	msg := truncateError(fetchErr)

	src, err := s.store.GetSource(ctx, sourceID)
	if err != nil {
		return err
	}

	snap := &Snapshot{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		Status:     StatusFailed,
		HTTPStatus: httpStatus,
		URL:        src.URL,
		FetchedAt:  at.UTC(),
	}

	if err := s.store.RecordFetchOutcome(ctx, sourceID, StatusFailed, msg, at, snap); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "fetch failed",
			"source_id", sourceID,
			"http_status", httpStatus,
			"error", msg,
		)
	}
	return nil
}

// RecordExtractionFailure marks the source as failed after a downstream
// stage error. The snapshot the stage ran on already exists, so only
// the source state changes.
func (s *Service) RecordExtractionFailure(ctx context.Context, sourceID string, stageErr error, at time.Time) error {
	msg := truncateError(stageErr)

	if err := s.store.RecordFetchOutcome(ctx, sourceID, StatusFailed, msg, at, nil); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "extraction failed",
			"source_id", sourceID,
			"error", msg,
		)
	}
	return nil
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}

// ContentChanged reports whether content differs from the source's most
// recent successful snapshot. A source with none has always changed.
func (s *Service) ContentChanged(ctx context.Context, sourceID, content string) (bool, error) {
	latest, err := s.store.LatestSnapshot(ctx, sourceID)
	if err != nil {
		if IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return latest.ContentHash != HashContent(content), nil
}

// LatestSnapshot returns the most recent successful snapshot for a
// source. Failed attempt records are skipped.
func (s *Service) LatestSnapshot(ctx context.Context, sourceID string) (*Snapshot, error) {
	return s.store.LatestSnapshot(ctx, sourceID)
}

// GetSnapshot returns a snapshot by ID.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	return s.store.GetSnapshot(ctx, id)
}

// Snapshots returns up to limit snapshots for a source, newest first.
func (s *Service) Snapshots(ctx context.Context, sourceID string, limit int) ([]*Snapshot, error) {
	return s.store.ListSnapshots(ctx, sourceID, limit)
}

// HashContent returns the hex SHA-256 of the given text.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
