// Package lifecycle implements the review and approval workflow for
// extracted rule candidates.
//
// The Service wraps a rules store with per-key serialization, logging,
// and metrics. Approving a candidate atomically supersedes the previous
// active version and assigns the next version number; rejecting a
// candidate is terminal and never consumes a version number. Concurrent
// approvals for the same country/category key are serialized so that at
// most one rule set per key is ever active.
package lifecycle
