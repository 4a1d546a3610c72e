package evaluator

import "time"

// ApplicantProfile carries the applicant signals the rubric and the
// condition predicates read. Label fields hold coarse buckets such as
// "low", "medium", "high"; unknown values are treated as absent.
type ApplicantProfile struct {
	SponsorType          string `json:"sponsorType,omitempty"`
	EmploymentStatus     string `json:"employmentStatus,omitempty"`
	FinancialSufficiency string `json:"financialSufficiency,omitempty"`
	TiesStrength         string `json:"tiesStrength,omitempty"`
	TravelHistory        string `json:"travelHistory,omitempty"`

	// RiskDrivers are explicit flags such as "low_funds" or "weak_ties"
	// that tighten evaluation for the document types they target.
	RiskDrivers []string `json:"riskDrivers,omitempty"`

	// DataCompleteness in [0, 1] states how much of the applicant's data
	// was available when the profile was built. Low completeness shifts
	// verdicts toward NEED_FIX instead of REJECTED.
	DataCompleteness float64 `json:"dataCompleteness"`
}

// DocumentContent is the extracted content of one submitted document.
type DocumentContent struct {
	// DocumentType is the submitted document's type slug.
	DocumentType string `json:"documentType"`

	// Text is the extracted free text of the document, possibly empty.
	Text string `json:"text,omitempty"`

	// Fields are structured values pulled out of the document
	// (issuer, account holder, stamp presence, and so on).
	Fields map[string]string `json:"fields,omitempty"`

	// Amount is the monetary amount stated by the document, when the
	// document carries one. Nil means no amount was found.
	Amount *float64 `json:"amount,omitempty"`

	// Currency qualifies Amount.
	Currency string `json:"currency,omitempty"`

	// IssuedAt and ExpiresAt bound the document's validity when known.
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// VerdictStatus is the tri-state outcome of a compliance check.
type VerdictStatus string

const (
	// StatusApproved means the document satisfies the requirement.
	StatusApproved VerdictStatus = "APPROVED"

	// StatusNeedFix means the deficiency is correctable by the applicant.
	StatusNeedFix VerdictStatus = "NEED_FIX"

	// StatusRejected means the document is unusable for the requirement.
	StatusRejected VerdictStatus = "REJECTED"
)

// RiskLevel grades the residual risk carried by a verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Finding is one structured observation attached to a verdict.
type Finding struct {
	// Code is a stable machine-readable identifier such as
	// "amount_shortfall" or "wrong_document_type".
	Code string `json:"code"`

	// Message is the human-readable explanation.
	Message string `json:"message"`
}

// ComplianceVerdict is the outcome of checking one document against one
// requirement.
type ComplianceVerdict struct {
	Status    VerdictStatus `json:"status"`
	RiskLevel RiskLevel     `json:"riskLevel"`
	Rationale string        `json:"rationale"`
	Findings  []Finding     `json:"findings,omitempty"`
}

// riskRank orders risk levels for clamping.
func riskRank(r RiskLevel) int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 1
	}
}

// clampRisk keeps the risk level consistent with the verdict status: a
// rejection is never LOW risk and an approval is never HIGH risk. Within
// those bounds the level remains an independent signal.
func clampRisk(status VerdictStatus, risk RiskLevel) RiskLevel {
	switch status {
	case StatusRejected:
		if riskRank(risk) < riskRank(RiskMedium) {
			return RiskMedium
		}
	case StatusApproved:
		if riskRank(risk) > riskRank(RiskMedium) {
			return RiskMedium
		}
	}
	return risk
}

// fallbackVerdict is returned whenever the evaluator cannot complete a
// check. It is deliberately fixed: conservative, never punitive.
func fallbackVerdict() ComplianceVerdict {
	return ComplianceVerdict{
		Status:    StatusNeedFix,
		RiskLevel: RiskMedium,
		Rationale: "manual review required",
	}
}
