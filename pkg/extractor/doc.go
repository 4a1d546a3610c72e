// Package extractor turns cleaned source documents into rule-set
// candidates.
//
// An Oracle produces a raw JSON payload from document text. The adapter
// pipeline then hardens that payload: JSON is located inside fenced or
// free-form output, decoded loosely, coerced onto the rule-set shape,
// validated against an embedded JSON Schema, and repaired once before
// being rejected. Valid payloads become pending candidates with a
// deterministic confidence score and a diff against the active rule set.
//
// The adapter is idempotent per snapshot: re-processing a snapshot that
// already has a candidate returns the existing candidate without
// consulting the oracle.
package extractor
