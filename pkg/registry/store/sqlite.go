package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"lumina-hq/polaris/pkg/registry"
)

// SQLiteStore implements Store using SQLite for persistence. It is
// suitable for single-instance deployments where sources and snapshots
// must survive restarts.
//
// The store uses a write-ahead log (WAL) for better concurrent read
// performance and prepared statements on the hot paths.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	// prepared statements
	upsertSourceStmt   *sql.Stmt
	getSourceStmt      *sql.Stmt
	recordOutcomeStmt  *sql.Stmt
	createSnapshotStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite registry store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a new SQLite registry store with
// custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		country_code TEXT NOT NULL,
		category TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		fetch_interval_ns INTEGER NOT NULL,
		last_fetched_at INTEGER,
		last_status TEXT NOT NULL DEFAULT 'never',
		last_error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sources_key ON sources(country_code, category);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'success',
		http_status INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		raw_size INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source_id, fetched_at DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_hash ON snapshots(source_id, content_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.upsertSourceStmt, err = s.db.Prepare(`
		INSERT INTO sources (id, name, url, country_code, category, priority, active, fetch_interval_ns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			country_code = excluded.country_code,
			category = excluded.category,
			priority = excluded.priority,
			active = 1,
			fetch_interval_ns = excluded.fetch_interval_ns,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	s.getSourceStmt, err = s.db.Prepare(sourceSelect + ` WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.recordOutcomeStmt, err = s.db.Prepare(`
		UPDATE sources
		SET last_status = ?, last_error = ?, last_fetched_at = ?, updated_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome statement: %w", err)
	}

	s.createSnapshotStmt, err = s.db.Prepare(`
		INSERT INTO snapshots (id, source_id, status, http_status, url, title, content, raw_size, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot statement: %w", err)
	}

	return nil
}

const sourceSelect = `
	SELECT id, name, url, country_code, category, priority, active, fetch_interval_ns,
	       last_fetched_at, last_status, last_error, created_at, updated_at
	FROM sources`

const snapshotSelect = `
	SELECT id, source_id, status, http_status, url, title, content, raw_size, content_hash, fetched_at
	FROM snapshots`

// UpsertSource inserts or updates a source's declared fields.
func (s *SQLiteStore) UpsertSource(ctx context.Context, src *registry.Source) error {
	if err := src.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.upsertSourceStmt.ExecContext(ctx,
		src.ID,
		src.Name,
		src.URL,
		src.CountryCode,
		src.Category,
		src.Priority,
		src.FetchInterval.Nanoseconds(),
		now.UnixNano(),
		now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source %s: %w", src.ID, err)
	}
	return nil
}

// GetSource retrieves a source by ID.
func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*registry.Source, error) {
	src, err := scanSource(s.getSourceStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, &registry.NotFoundError{Kind: "source", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return src, nil
}

// ListSources returns all registered sources.
func (s *SQLiteStore) ListSources(ctx context.Context) ([]*registry.Source, error) {
	rows, err := s.db.QueryContext(ctx, sourceSelect+` ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var out []*registry.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// DeactivateSource takes a source out of scheduling. The source row
// and its snapshots are retained.
func (s *SQLiteStore) DeactivateSource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate source %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &registry.NotFoundError{Kind: "source", ID: id}
	}
	return nil
}

// RecordFetchOutcome updates a source's fetch state and stores the
// snapshot, when given, in the same transaction.
func (s *SQLiteStore) RecordFetchOutcome(ctx context.Context, sourceID string, status registry.FetchStatus, fetchErr string, at time.Time, snap *registry.Snapshot) error {
	if status != registry.StatusFailed {
		fetchErr = ""
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outcome transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.StmtContext(ctx, s.recordOutcomeStmt).ExecContext(ctx,
		string(status),
		fetchErr,
		at.UTC().UnixNano(),
		time.Now().UTC().UnixNano(),
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch outcome for %s: %w", sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &registry.NotFoundError{Kind: "source", ID: sourceID}
	}

	if snap != nil {
		_, err = tx.StmtContext(ctx, s.createSnapshotStmt).ExecContext(ctx,
			snap.ID,
			snap.SourceID,
			string(snap.Status),
			snap.HTTPStatus,
			snap.URL,
			snap.Title,
			snap.Content,
			snap.RawSize,
			snap.ContentHash,
			snap.FetchedAt.UTC().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to create snapshot %s: %w", snap.ID, err)
		}
	}

	return tx.Commit()
}

// GetSnapshot retrieves a snapshot by ID.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*registry.Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, snapshotSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, &registry.NotFoundError{Kind: "snapshot", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recent successful snapshot for a
// source.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, sourceID string) (*registry.Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx,
		snapshotSelect+` WHERE source_id = ? AND status = 'success' ORDER BY fetched_at DESC LIMIT 1`, sourceID))
	if err == sql.ErrNoRows {
		return nil, &registry.NotFoundError{Kind: "snapshot", ID: sourceID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot for %s: %w", sourceID, err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots for a source, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, sourceID string, limit int) ([]*registry.Snapshot, error) {
	query := snapshotSelect + ` WHERE source_id = ? ORDER BY fetched_at DESC`
	args := []any{sourceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", sourceID, err)
	}
	defer rows.Close()

	var out []*registry.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{
			s.upsertSourceStmt, s.getSourceStmt, s.recordOutcomeStmt, s.createSnapshotStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*registry.Source, error) {
	var (
		src           registry.Source
		active        int
		intervalNS    int64
		lastFetchedNS sql.NullInt64
		createdNS     int64
		updatedNS     int64
		status        string
	)

	err := row.Scan(
		&src.ID,
		&src.Name,
		&src.URL,
		&src.CountryCode,
		&src.Category,
		&src.Priority,
		&active,
		&intervalNS,
		&lastFetchedNS,
		&status,
		&src.LastError,
		&createdNS,
		&updatedNS,
	)
	if err != nil {
		return nil, err
	}

	src.Active = active != 0
	src.FetchInterval = time.Duration(intervalNS)
	src.LastStatus = registry.FetchStatus(status)
	if lastFetchedNS.Valid {
		t := time.Unix(0, lastFetchedNS.Int64).UTC()
		src.LastFetchedAt = &t
	}
	src.CreatedAt = time.Unix(0, createdNS).UTC()
	src.UpdatedAt = time.Unix(0, updatedNS).UTC()

	return &src, nil
}

func scanSnapshot(row rowScanner) (*registry.Snapshot, error) {
	var (
		snap      registry.Snapshot
		status    string
		fetchedNS int64
	)

	err := row.Scan(
		&snap.ID,
		&snap.SourceID,
		&status,
		&snap.HTTPStatus,
		&snap.URL,
		&snap.Title,
		&snap.Content,
		&snap.RawSize,
		&snap.ContentHash,
		&fetchedNS,
	)
	if err != nil {
		return nil, err
	}

	snap.Status = registry.FetchStatus(status)
	snap.FetchedAt = time.Unix(0, fetchedNS).UTC()
	return &snap, nil
}
