// Package registry manages the catalog of official sources that visa
// rules are extracted from, and the snapshots captured from them.
//
// Each source names a country/category pair, a URL, a fetch interval,
// and a priority. The Service decides which sources are due for a fetch
// (never-fetched and previously-failed sources are always due), records
// fetch outcomes, and stores immutable content snapshots keyed by a
// content hash so unchanged documents can be skipped downstream.
//
// Sources are seeded from a YAML file and optionally hot-reloaded when
// the file changes on disk.
package registry
