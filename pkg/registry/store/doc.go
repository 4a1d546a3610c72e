// Package store provides persistence for the source registry and its
// snapshots.
//
// Two implementations are available: a SQLite backend (modernc.org/sqlite,
// pure Go) for durable single-instance deployments, and an in-memory
// backend for tests. Both enforce the same semantics: source upserts are
// idempotent on ID, fetch outcomes update status atomically, and
// snapshots are immutable once written.
package store
