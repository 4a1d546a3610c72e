// Package rules defines the core domain model for Polaris: requirements,
// versioned rule sets, review candidates, structural diffs, and the
// approval state machine vocabulary shared by the pipeline and the
// compliance evaluator.
//
// A RuleSet is the approvable bundle of document requirements and
// ancillary policy (financial, processing, fee) for one
// (country code, visa category) key. RuleSetData is the unversioned
// payload shape shared by candidates and rule sets. At most one RuleSet
// per key is approved at any time; that invariant is enforced by the
// lifecycle service and the store's approval transaction.
package rules
