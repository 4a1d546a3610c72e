// Package diff computes structural deltas between rule set payloads.
//
// The engine is a pure function over two RuleSetData values: no storage,
// no clock, no configuration. Requirements are matched by their
// normalized document type slug; scalar sections are compared
// independently and reported only when at least one side defines them.
package diff
