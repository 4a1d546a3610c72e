package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"

	"lumina-hq/polaris/pkg/rules"
)

// SQLiteConfig contains configuration for the SQLite rule store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/rules.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite rule store.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "rules.store.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite rule store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return rules.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return rules.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return rules.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return rules.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return rules.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return rules.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// CreateCandidate inserts a pending candidate, enforcing one candidate
// per snapshot via the UNIQUE constraint.
func (s *SQLiteStore) CreateCandidate(ctx context.Context, c *rules.Candidate) error {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return rules.NewStorageError("sqlite", "marshal_candidate", err)
	}

	var diffJSON interface{}
	if c.Diff != nil {
		b, err := json.Marshal(c.Diff)
		if err != nil {
			return rules.NewStorageError("sqlite", "marshal_diff", err)
		}
		diffJSON = string(b)
	}

	query := `
		INSERT INTO candidates (
			id, snapshot_id, source_id, country_code, category,
			data, confidence, diff,
			state, reviewed_by, reviewed_at, reject_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.SnapshotID, c.SourceID, c.Key.CountryCode, c.Key.Category,
		string(data), c.Confidence, diffJSON,
		string(c.State), nullString(c.ReviewedBy), c.ReviewedAt, nullString(c.RejectReason), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.GetCandidateBySnapshot(ctx, c.SnapshotID)
			if lookupErr == nil {
				return &rules.DuplicateCandidateError{
					SnapshotID: c.SnapshotID,
					ExistingID: existing.ID,
				}
			}
		}
		return rules.NewStorageError("sqlite", "create_candidate", err)
	}

	return nil
}

// GetCandidate retrieves a candidate by id.
func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*rules.Candidate, error) {
	row := s.db.QueryRowContext(ctx, candidateSelect+" WHERE id = ?", id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: id}
	}
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "get_candidate", err)
	}
	return c, nil
}

// GetCandidateBySnapshot retrieves the candidate derived from a snapshot.
func (s *SQLiteStore) GetCandidateBySnapshot(ctx context.Context, snapshotID string) (*rules.Candidate, error) {
	row := s.db.QueryRowContext(ctx, candidateSelect+" WHERE snapshot_id = ?", snapshotID)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: snapshotID}
	}
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "get_candidate_by_snapshot", err)
	}
	return c, nil
}

// ListCandidates returns candidates in the given state, newest first.
func (s *SQLiteStore) ListCandidates(ctx context.Context, state rules.ApprovalState) ([]*rules.Candidate, error) {
	query := candidateSelect
	var args []interface{}
	if state != "" {
		query += " WHERE state = ?"
		args = append(args, string(state))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "list_candidates", err)
	}
	defer rows.Close()

	candidates := []*rules.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, rules.NewStorageError("sqlite", "scan_candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, rules.NewStorageError("sqlite", "list_candidates", err)
	}

	return candidates, nil
}

// ApproveCandidate promotes a pending candidate inside a single
// immediate transaction so concurrent approvals for the same key
// serialize at the database.
func (s *SQLiteStore) ApproveCandidate(ctx context.Context, candidateID, actor string, now time.Time) (*rules.RuleSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "begin_approve", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, candidateSelect+" WHERE id = ?", candidateID)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, &rules.NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "load_candidate", err)
	}

	if c.State != rules.StatePending {
		return nil, &rules.ApprovalConflictError{CandidateID: candidateID, State: c.State}
	}

	var maxVersion sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM rule_sets WHERE country_code = ? AND category = ?`,
		c.Key.CountryCode, c.Key.Category,
	).Scan(&maxVersion)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "max_version", err)
	}
	nextVersion := int(maxVersion.Int64) + 1

	_, err = tx.ExecContext(ctx,
		`UPDATE rule_sets SET approval_state = ? WHERE country_code = ? AND category = ? AND approval_state = ?`,
		string(rules.StateSuperseded), c.Key.CountryCode, c.Key.Category, string(rules.StateApproved),
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "demote_siblings", err)
	}

	rs := &rules.RuleSet{
		ID:            uuid.NewString(),
		Key:           c.Key,
		Version:       nextVersion,
		Data:          c.Data,
		ApprovalState: rules.StateApproved,
		ApprovedAt:    &now,
		ApprovedBy:    actor,
		SourceID:      c.SourceID,
		CreatedAt:     now,
	}

	data, err := json.Marshal(rs.Data)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "marshal_rule_set", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rule_sets (
			id, country_code, category, version, data,
			approval_state, approved_at, approved_by, source_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.Key.CountryCode, rs.Key.Category, rs.Version, string(data),
		string(rs.ApprovalState), rs.ApprovedAt, rs.ApprovedBy, nullString(rs.SourceID), rs.CreatedAt,
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "insert_rule_set", err)
	}

	var diff rules.Diff
	if c.Diff != nil {
		diff = *c.Diff
	}
	diffJSON, err := json.Marshal(diff)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "marshal_changelog_diff", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO change_log (id, rule_set_id, country_code, category, version, diff, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rs.ID, rs.Key.CountryCode, rs.Key.Category, rs.Version,
		string(diffJSON), actor, now,
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "insert_change_log", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE candidates SET state = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?`,
		string(rules.StateApproved), actor, now, candidateID,
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "mark_candidate", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, rules.NewStorageError("sqlite", "commit_approve", err)
	}

	s.logger.Info("candidate approved",
		"candidate_id", candidateID,
		"key", rs.Key.String(),
		"version", rs.Version,
		"actor", actor,
	)

	return rs, nil
}

// RejectCandidate terminally rejects a pending candidate.
func (s *SQLiteStore) RejectCandidate(ctx context.Context, candidateID, actor, reason string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rules.NewStorageError("sqlite", "begin_reject", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx, `SELECT state FROM candidates WHERE id = ?`, candidateID).Scan(&state)
	if err == sql.ErrNoRows {
		return &rules.NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if err != nil {
		return rules.NewStorageError("sqlite", "load_candidate", err)
	}
	if rules.ApprovalState(state) != rules.StatePending {
		return &rules.ApprovalConflictError{CandidateID: candidateID, State: rules.ApprovalState(state)}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE candidates SET state = ?, reviewed_by = ?, reviewed_at = ?, reject_reason = ? WHERE id = ?`,
		string(rules.StateRejected), actor, now, reason, candidateID,
	)
	if err != nil {
		return rules.NewStorageError("sqlite", "reject_candidate", err)
	}

	if err := tx.Commit(); err != nil {
		return rules.NewStorageError("sqlite", "commit_reject", err)
	}

	s.logger.Info("candidate rejected",
		"candidate_id", candidateID,
		"actor", actor,
	)

	return nil
}

// ActiveRuleSet returns the approved rule set for a key.
func (s *SQLiteStore) ActiveRuleSet(ctx context.Context, key rules.Key) (*rules.RuleSet, error) {
	row := s.db.QueryRowContext(ctx,
		ruleSetSelect+` WHERE country_code = ? AND category = ? AND approval_state = ?`,
		key.CountryCode, key.Category, string(rules.StateApproved),
	)
	rs, err := scanRuleSet(row)
	if err == sql.ErrNoRows {
		return nil, &rules.NotFoundError{Kind: "rule_set", ID: key.String()}
	}
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "active_rule_set", err)
	}
	return rs, nil
}

// GetRuleSet returns a rule set by id.
func (s *SQLiteStore) GetRuleSet(ctx context.Context, id string) (*rules.RuleSet, error) {
	row := s.db.QueryRowContext(ctx, ruleSetSelect+` WHERE id = ?`, id)
	rs, err := scanRuleSet(row)
	if err == sql.ErrNoRows {
		return nil, &rules.NotFoundError{Kind: "rule_set", ID: id}
	}
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "get_rule_set", err)
	}
	return rs, nil
}

// ListRuleSets returns every version for a key, highest version first.
func (s *SQLiteStore) ListRuleSets(ctx context.Context, key rules.Key) ([]*rules.RuleSet, error) {
	rows, err := s.db.QueryContext(ctx,
		ruleSetSelect+` WHERE country_code = ? AND category = ? ORDER BY version DESC`,
		key.CountryCode, key.Category,
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "list_rule_sets", err)
	}
	defer rows.Close()

	sets := []*rules.RuleSet{}
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, rules.NewStorageError("sqlite", "scan_rule_set", err)
		}
		sets = append(sets, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, rules.NewStorageError("sqlite", "list_rule_sets", err)
	}
	return sets, nil
}

// ListChangeLog returns the approval history for a key, newest first.
func (s *SQLiteStore) ListChangeLog(ctx context.Context, key rules.Key) ([]*rules.ChangeLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_set_id, country_code, category, version, diff, actor, created_at
		FROM change_log WHERE country_code = ? AND category = ? ORDER BY version DESC`,
		key.CountryCode, key.Category,
	)
	if err != nil {
		return nil, rules.NewStorageError("sqlite", "list_change_log", err)
	}
	defer rows.Close()

	entries := []*rules.ChangeLogEntry{}
	for rows.Next() {
		var e rules.ChangeLogEntry
		var diffJSON string
		err := rows.Scan(&e.ID, &e.RuleSetID, &e.Key.CountryCode, &e.Key.Category,
			&e.Version, &diffJSON, &e.Actor, &e.CreatedAt)
		if err != nil {
			return nil, rules.NewStorageError("sqlite", "scan_change_log", err)
		}
		if err := json.Unmarshal([]byte(diffJSON), &e.Diff); err != nil {
			return nil, rules.NewStorageError("sqlite", "unmarshal_diff", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, rules.NewStorageError("sqlite", "list_change_log", err)
	}
	return entries, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return rules.NewStorageError("sqlite", "close", err)
	}
	return nil
}

const candidateSelect = `
	SELECT id, snapshot_id, source_id, country_code, category,
	       data, confidence, diff,
	       state, reviewed_by, reviewed_at, reject_reason, created_at
	FROM candidates`

const ruleSetSelect = `
	SELECT id, country_code, category, version, data,
	       approval_state, approved_at, approved_by, source_id, created_at
	FROM rule_sets`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCandidate scans a candidate row.
func scanCandidate(row rowScanner) (*rules.Candidate, error) {
	var c rules.Candidate
	var data string
	var diffJSON, reviewedBy, rejectReason sql.NullString
	var reviewedAt sql.NullTime
	var state string

	err := row.Scan(
		&c.ID, &c.SnapshotID, &c.SourceID, &c.Key.CountryCode, &c.Key.Category,
		&data, &c.Confidence, &diffJSON,
		&state, &reviewedBy, &reviewedAt, &rejectReason, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.State = rules.ApprovalState(state)
	if err := json.Unmarshal([]byte(data), &c.Data); err != nil {
		return nil, err
	}
	if diffJSON.Valid && diffJSON.String != "" {
		var d rules.Diff
		if err := json.Unmarshal([]byte(diffJSON.String), &d); err != nil {
			return nil, err
		}
		c.Diff = &d
	}
	if reviewedBy.Valid {
		c.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		c.ReviewedAt = &t
	}
	if rejectReason.Valid {
		c.RejectReason = rejectReason.String
	}

	return &c, nil
}

// scanRuleSet scans a rule set row.
func scanRuleSet(row rowScanner) (*rules.RuleSet, error) {
	var rs rules.RuleSet
	var data, state string
	var approvedAt sql.NullTime
	var approvedBy, sourceID sql.NullString

	err := row.Scan(
		&rs.ID, &rs.Key.CountryCode, &rs.Key.Category, &rs.Version, &data,
		&state, &approvedAt, &approvedBy, &sourceID, &rs.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rs.ApprovalState = rules.ApprovalState(state)
	if err := json.Unmarshal([]byte(data), &rs.Data); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		rs.ApprovedAt = &t
	}
	if approvedBy.Valid {
		rs.ApprovedBy = approvedBy.String
	}
	if sourceID.Valid {
		rs.SourceID = sourceID.String
	}

	return &rs, nil
}

// nullString converts empty strings to NULL for optional columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
