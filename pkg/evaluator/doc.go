// Package evaluator checks applicant documents against rule-set
// requirements and produces compliance verdicts.
//
// The decision policy is a deterministic rubric: wrong document types
// are rejected, financial shortfalls are graded by severity, and risk
// drivers in the applicant profile raise the bar for the documents they
// target. An optional judgment oracle contributes free-text findings;
// its output is post-processed so the risk level stays consistent with
// the verdict status. The evaluator never returns an error: any failure
// inside its boundary collapses to a conservative manual-review verdict.
package evaluator
