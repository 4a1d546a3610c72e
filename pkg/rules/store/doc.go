// Package store persists candidates, versioned rule sets, and the
// approval change log.
//
// Two backends implement the Store interface: SQLite for production and
// an in-memory map store for tests. The approval swap — demote every
// sibling version, insert the new approved row, append the change-log
// entry, and mark the candidate — executes as a single transaction in
// both backends so a crash or a concurrent reader can never observe two
// approved versions for one key.
package store
