// Package pipeline drives the fetch/extract cycle over registry
// sources.
//
// Stages are idempotent and safe under at-least-once delivery: fetching
// an unchanged page records the outcome without a new snapshot, and
// re-extracting a snapshot returns its existing candidate. A cron-based
// scheduler periodically scans for due sources and dispatches them to a
// bounded worker group; one source's failure never aborts its siblings.
package pipeline
