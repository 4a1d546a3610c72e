package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the rule store schema.
const Schema = `
-- Review candidates, at most one per snapshot
CREATE TABLE IF NOT EXISTS candidates (
    id TEXT PRIMARY KEY,
    snapshot_id TEXT NOT NULL UNIQUE,
    source_id TEXT NOT NULL,
    country_code TEXT NOT NULL,
    category TEXT NOT NULL,

    data TEXT NOT NULL,
    confidence REAL NOT NULL,
    diff TEXT,

    state TEXT NOT NULL,
    reviewed_by TEXT,
    reviewed_at TIMESTAMP,
    reject_reason TEXT,
    created_at TIMESTAMP NOT NULL
);

-- Versioned rule sets, one approved row per (country_code, category)
CREATE TABLE IF NOT EXISTS rule_sets (
    id TEXT PRIMARY KEY,
    country_code TEXT NOT NULL,
    category TEXT NOT NULL,
    version INTEGER NOT NULL,

    data TEXT NOT NULL,

    approval_state TEXT NOT NULL,
    approved_at TIMESTAMP,
    approved_by TEXT,
    source_id TEXT,
    created_at TIMESTAMP NOT NULL,

    UNIQUE (country_code, category, version)
);

-- Immutable approval history
CREATE TABLE IF NOT EXISTS change_log (
    id TEXT PRIMARY KEY,
    rule_set_id TEXT NOT NULL,
    country_code TEXT NOT NULL,
    category TEXT NOT NULL,
    version INTEGER NOT NULL,
    diff TEXT NOT NULL,
    actor TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_candidates_state ON candidates(state);
CREATE INDEX IF NOT EXISTS idx_candidates_key ON candidates(country_code, category);
CREATE INDEX IF NOT EXISTS idx_rule_sets_key ON rule_sets(country_code, category);
CREATE INDEX IF NOT EXISTS idx_rule_sets_active ON rule_sets(country_code, category, approval_state);
CREATE INDEX IF NOT EXISTS idx_change_log_key ON change_log(country_code, category);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
