package rules

import (
	"fmt"
	"strings"
	"time"
)

// RequirementCategory classifies how strongly a document is demanded.
type RequirementCategory string

const (
	// CategoryRequired marks documents the application cannot proceed without.
	CategoryRequired RequirementCategory = "required"

	// CategoryHighlyRecommended marks documents that materially improve the
	// application but are not strictly mandatory.
	CategoryHighlyRecommended RequirementCategory = "highly_recommended"

	// CategoryOptional marks documents that are accepted but not expected.
	CategoryOptional RequirementCategory = "optional"
)

// ParseRequirementCategory maps a raw category string onto a known
// category. Unknown values coerce to optional rather than failing; the
// extractor depends on this when the oracle invents enum values.
func ParseRequirementCategory(s string) RequirementCategory {
	switch RequirementCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryRequired:
		return CategoryRequired
	case CategoryHighlyRecommended:
		return CategoryHighlyRecommended
	case CategoryOptional:
		return CategoryOptional
	default:
		return CategoryOptional
	}
}

// ConditionOperator is the comparison used by a requirement condition.
// The condition language is deliberately closed: equality and inequality
// over applicant profile fields, nothing else.
type ConditionOperator string

const (
	// OperatorEqual matches when the profile field equals the literal.
	OperatorEqual ConditionOperator = "eq"

	// OperatorNotEqual matches when the profile field differs from the literal.
	OperatorNotEqual ConditionOperator = "ne"
)

// Condition is an applicability predicate over applicant profile fields.
// A requirement with a nil Condition always applies. A condition whose
// field cannot be resolved evaluates to false (the requirement does not
// apply), never to an error.
type Condition struct {
	// Field is the applicant profile field name (e.g. "sponsorType").
	Field string `json:"field"`

	// Operator is eq or ne.
	Operator ConditionOperator `json:"operator"`

	// Literal is the value compared against, as a string.
	Literal string `json:"literal"`
}

// String renders the condition in the compact form used by logs and diffs.
func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	op := "=="
	if c.Operator == OperatorNotEqual {
		op = "!="
	}
	return fmt.Sprintf("%s %s %q", c.Field, op, c.Literal)
}

// Requirement is one document obligation within a rule set.
type Requirement struct {
	// DocumentType is the canonical slug identifying the document
	// (e.g. "bank_statement"). Unique within a rule set.
	DocumentType string `json:"documentType"`

	// Category is required, highly_recommended, or optional.
	Category RequirementCategory `json:"category"`

	// Description is the human-readable obligation text.
	Description string `json:"description"`

	// ValidityText describes validity constraints ("issued within 3 months").
	ValidityText string `json:"validityText,omitempty"`

	// FormatText describes format constraints ("original, stamped by bank").
	FormatText string `json:"formatText,omitempty"`

	// Condition restricts applicability to matching applicant profiles.
	Condition *Condition `json:"condition,omitempty"`
}

// FinancialRule is the financial sufficiency section of a rule set.
type FinancialRule struct {
	MinimumBalance float64 `json:"minimumBalance"`
	Currency       string  `json:"currency"`
}

// ProcessingRule is the processing time section of a rule set.
type ProcessingRule struct {
	ProcessingDays int `json:"processingDays"`
}

// FeeRule is the visa fee section of a rule set.
type FeeRule struct {
	VisaFee  float64 `json:"visaFee"`
	Currency string  `json:"currency"`
}

// RuleSetData is the unversioned rule payload shared by candidates and
// approved rule sets. Scalar sections are pointers: nil means the source
// page did not state the section at all, which diffs treat differently
// from a zero value.
type RuleSetData struct {
	Requirements []Requirement   `json:"requirements"`
	Financial    *FinancialRule  `json:"financial,omitempty"`
	Processing   *ProcessingRule `json:"processing,omitempty"`
	Fee          *FeeRule        `json:"fee,omitempty"`
}

// Requirement returns the requirement with the given document type, or nil.
func (d *RuleSetData) Requirement(documentType string) *Requirement {
	for i := range d.Requirements {
		if d.Requirements[i].DocumentType == documentType {
			return &d.Requirements[i]
		}
	}
	return nil
}

// ApprovalState is the review state of a candidate or rule set version.
type ApprovalState string

const (
	// StatePending means the record awaits a reviewer decision.
	StatePending ApprovalState = "pending"

	// StateApproved means the record was promoted by a reviewer.
	StateApproved ApprovalState = "approved"

	// StateRejected is terminal; rejected records have no further effect.
	StateRejected ApprovalState = "rejected"

	// StateSuperseded marks rule set versions whose approval was revoked
	// by a newer approved version. Candidates never enter this state.
	StateSuperseded ApprovalState = "superseded"
)

// Key identifies the (country code, visa category) pair a rule set governs.
type Key struct {
	CountryCode string `json:"countryCode"`
	Category    string `json:"category"`
}

// String renders the key in "DE/tourist" form for logs and lock scoping.
func (k Key) String() string {
	return k.CountryCode + "/" + k.Category
}

// RuleSet is one immutable, versioned rule bundle for a key.
type RuleSet struct {
	ID            string        `json:"id"`
	Key           Key           `json:"key"`
	Version       int           `json:"version"`
	Data          RuleSetData   `json:"data"`
	ApprovalState ApprovalState `json:"approvalState"`
	ApprovedAt    *time.Time    `json:"approvedAt,omitempty"`
	ApprovedBy    string        `json:"approvedBy,omitempty"`

	// SourceID is the registry source whose snapshot produced this version.
	SourceID  string    `json:"sourceId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Candidate is a freshly extracted rule payload awaiting review.
// At most one candidate exists per snapshot.
type Candidate struct {
	ID         string `json:"id"`
	SnapshotID string `json:"snapshotId"`
	SourceID   string `json:"sourceId"`
	Key        Key    `json:"key"`

	Data RuleSetData `json:"data"`

	// Confidence is the deterministic extraction completeness score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Diff is the delta against the key's approved rule set at extraction
	// time, or nil when no approved version existed.
	Diff *Diff `json:"diff,omitempty"`

	State        ApprovalState `json:"state"`
	ReviewedBy   string        `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time    `json:"reviewedAt,omitempty"`
	RejectReason string        `json:"rejectReason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ChangeLogEntry is an immutable record of one approval, carrying the
// diff that the reviewer saw when promoting the candidate.
type ChangeLogEntry struct {
	ID        string    `json:"id"`
	RuleSetID string    `json:"ruleSetId"`
	Key       Key       `json:"key"`
	Version   int       `json:"version"`
	Diff      Diff      `json:"diff"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnknownDocumentType is the slug substituted for requirements that
// arrive without a document type. Diff and uniqueness logic treat it
// like any other slug instead of failing.
const UnknownDocumentType = "unknown"

// NormalizeDocumentType canonicalizes a raw document type to the slug
// form used as the matching key everywhere: lowercase, trimmed,
// interior whitespace and dashes collapsed to single underscores.
// Empty input normalizes to UnknownDocumentType.
func NormalizeDocumentType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return UnknownDocumentType
	}
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return UnknownDocumentType
	}
	return out
}
