package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lumina-hq/polaris/pkg/registry"
)

// storeFactories lets every test run against both backends.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "registry.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			return s
		},
	}
}

func testSource(id string) *registry.Source {
	return &registry.Source{
		ID:            id,
		Name:          "Germany tourist visa page",
		URL:           "https://example.de/visa/tourist",
		CountryCode:   "DE",
		Category:      "tourist",
		Priority:      5,
		FetchInterval: 24 * time.Hour,
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}

			got, err := s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if got.URL != "https://example.de/visa/tourist" {
				t.Errorf("URL = %q", got.URL)
			}
			if got.LastStatus != registry.StatusNever {
				t.Errorf("LastStatus = %q, want never", got.LastStatus)
			}
			if !got.Active {
				t.Error("Active = false, want true on insert")
			}
		})
	}
}

func TestStore_UpsertPreservesFetchState(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}
			now := time.Now().UTC()
			if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusSuccess, "", now, nil); err != nil {
				t.Fatalf("RecordFetchOutcome() error = %v", err)
			}

			// Re-seed with a new priority; fetch state must survive.
			updated := testSource("de-tourist")
			updated.Priority = 9
			if err := s.UpsertSource(ctx, updated); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}

			got, err := s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if got.Priority != 9 {
				t.Errorf("Priority = %d, want 9", got.Priority)
			}
			if got.LastStatus != registry.StatusSuccess {
				t.Errorf("LastStatus = %q, want success", got.LastStatus)
			}
			if got.LastFetchedAt == nil {
				t.Error("LastFetchedAt lost on upsert")
			}
		})
	}
}

func TestStore_RecordFetchOutcome(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}

			now := time.Now().UTC()
			if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusFailed, "connection refused", now, nil); err != nil {
				t.Fatalf("RecordFetchOutcome() error = %v", err)
			}

			got, err := s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if got.LastStatus != registry.StatusFailed {
				t.Errorf("LastStatus = %q, want failed", got.LastStatus)
			}
			if got.LastError != "connection refused" {
				t.Errorf("LastError = %q", got.LastError)
			}

			// A later success clears the recorded error.
			if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusSuccess, "stale", now.Add(time.Hour), nil); err != nil {
				t.Fatalf("RecordFetchOutcome() error = %v", err)
			}
			got, err = s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if got.LastError != "" {
				t.Errorf("LastError = %q, want empty after success", got.LastError)
			}
		})
	}
}

func TestStore_RecordFetchOutcomeUnknownSource(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			err := s.RecordFetchOutcome(context.Background(), "missing", registry.StatusSuccess, "", time.Now(), nil)
			if !registry.IsNotFound(err) {
				t.Errorf("RecordFetchOutcome() = %v, want NotFoundError", err)
			}
		})
	}
}

func TestStore_Snapshots(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}

			base := time.Now().UTC().Truncate(time.Millisecond)
			for i, id := range []string{"snap-1", "snap-2", "snap-3"} {
				snap := &registry.Snapshot{
					ID:          id,
					SourceID:    "de-tourist",
					Status:      registry.StatusSuccess,
					HTTPStatus:  200,
					URL:         "https://example.de/visa/tourist",
					Title:       "Tourist visa requirements",
					Content:     "passport plus bank statement " + id,
					RawSize:     4096,
					ContentHash: "hash-" + id,
					FetchedAt:   base.Add(time.Duration(i) * time.Minute),
				}
				at := snap.FetchedAt
				if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusSuccess, "", at, snap); err != nil {
					t.Fatalf("RecordFetchOutcome(%s) error = %v", id, err)
				}
			}

			latest, err := s.LatestSnapshot(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("LatestSnapshot() error = %v", err)
			}
			if latest.ID != "snap-3" {
				t.Errorf("latest.ID = %q, want snap-3", latest.ID)
			}

			snaps, err := s.ListSnapshots(ctx, "de-tourist", 2)
			if err != nil {
				t.Fatalf("ListSnapshots() error = %v", err)
			}
			if len(snaps) != 2 || snaps[0].ID != "snap-3" || snaps[1].ID != "snap-2" {
				t.Errorf("ListSnapshots() order wrong: %v", snaps)
			}

			got, err := s.GetSnapshot(ctx, "snap-1")
			if err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if got.ContentHash != "hash-snap-1" {
				t.Errorf("ContentHash = %q", got.ContentHash)
			}
			if got.Status != registry.StatusSuccess || got.HTTPStatus != 200 {
				t.Errorf("Status = %q HTTPStatus = %d, want success 200", got.Status, got.HTTPStatus)
			}
		})
	}
}

func TestStore_LatestSnapshotEmpty(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			_, err := s.LatestSnapshot(context.Background(), "de-tourist")
			if !registry.IsNotFound(err) {
				t.Errorf("LatestSnapshot() = %v, want NotFoundError", err)
			}
		})
	}
}

func TestStore_DeactivateSource(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}
			if err := s.DeactivateSource(ctx, "de-tourist"); err != nil {
				t.Fatalf("DeactivateSource() error = %v", err)
			}

			// The row survives; only scheduling eligibility changes.
			got, err := s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if got.Active {
				t.Error("Active = true after deactivation")
			}
			if got.Due(time.Now().UTC()) {
				t.Error("deactivated source reported as due")
			}

			// Re-registering reactivates.
			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}
			got, err = s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if !got.Active {
				t.Error("Active = false after re-registration")
			}

			if err := s.DeactivateSource(ctx, "missing"); !registry.IsNotFound(err) {
				t.Errorf("DeactivateSource() = %v, want NotFoundError", err)
			}
		})
	}
}

func TestStore_LatestSnapshotSkipsFailedAttempts(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			if err := s.UpsertSource(ctx, testSource("de-tourist")); err != nil {
				t.Fatalf("UpsertSource() error = %v", err)
			}

			base := time.Now().UTC().Truncate(time.Millisecond)
			ok := &registry.Snapshot{
				ID:          "snap-ok",
				SourceID:    "de-tourist",
				Status:      registry.StatusSuccess,
				HTTPStatus:  200,
				URL:         "https://example.de/visa/tourist",
				Content:     "passport plus bank statement",
				ContentHash: "hash-ok",
				FetchedAt:   base,
			}
			if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusSuccess, "", base, ok); err != nil {
				t.Fatalf("RecordFetchOutcome() error = %v", err)
			}

			failed := &registry.Snapshot{
				ID:         "snap-failed",
				SourceID:   "de-tourist",
				Status:     registry.StatusFailed,
				HTTPStatus: 503,
				URL:        "https://example.de/visa/tourist",
				FetchedAt:  base.Add(time.Minute),
			}
			if err := s.RecordFetchOutcome(ctx, "de-tourist", registry.StatusFailed, "status 503", base.Add(time.Minute), failed); err != nil {
				t.Fatalf("RecordFetchOutcome() error = %v", err)
			}

			latest, err := s.LatestSnapshot(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("LatestSnapshot() error = %v", err)
			}
			if latest.ID != "snap-ok" {
				t.Errorf("latest.ID = %q, want snap-ok", latest.ID)
			}

			// The failed attempt still shows in the full history.
			snaps, err := s.ListSnapshots(ctx, "de-tourist", 0)
			if err != nil {
				t.Fatalf("ListSnapshots() error = %v", err)
			}
			if len(snaps) != 2 || snaps[0].ID != "snap-failed" {
				t.Errorf("ListSnapshots() = %v, want failed attempt first", snaps)
			}

			src, err := s.GetSource(ctx, "de-tourist")
			if err != nil {
				t.Fatalf("GetSource() error = %v", err)
			}
			if src.LastStatus != registry.StatusFailed || src.LastError != "status 503" {
				t.Errorf("LastStatus = %q LastError = %q, want failed/status 503", src.LastStatus, src.LastError)
			}
		})
	}
}
