package evaluator

import (
	"context"
	"fmt"
	"time"

	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// Input is one compliance check: a requirement already selected for the
// applicant, the submitted document's content, and the applicant profile.
// Financial carries the rule set's financial section when the check
// should enforce a minimum amount.
type Input struct {
	Requirement rules.Requirement
	Financial   *rules.FinancialRule
	Document    DocumentContent
	Profile     ApplicantProfile
}

// JudgmentOracle contributes free-text rationale and findings for a
// check the deterministic rubric has already graded. Its output cannot
// upgrade or downgrade the rubric status; a failing oracle sends the
// document to manual review.
type JudgmentOracle interface {
	Judge(ctx context.Context, in Input, rubric ComplianceVerdict) (*Judgment, error)
}

// Judgment is the post-processed output of a judgment oracle.
type Judgment struct {
	Rationale string    `json:"rationale"`
	RiskLevel RiskLevel `json:"riskLevel,omitempty"`
	Findings  []Finding `json:"findings,omitempty"`
}

// Evaluator grades documents against requirements.
type Evaluator struct {
	judgment JudgmentOracle
	logger   *logging.Logger
	metrics  *metrics.Collector

	// lowCompleteness is the threshold under which rejections soften to
	// NEED_FIX.
	lowCompleteness float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithJudgmentOracle attaches an advisory judgment oracle.
func WithJudgmentOracle(oracle JudgmentOracle) Option {
	return func(e *Evaluator) {
		e.judgment = oracle
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger.WithComponent("evaluator")
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Evaluator) {
		e.metrics = collector
	}
}

// New creates an evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		lowCompleteness: 0.5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks one document against one requirement. It never
// returns an error: unusable input and internal failures produce the
// fixed manual-review fallback instead.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) (verdict ComplianceVerdict) {
	start := time.Now()
	fellBack := false

	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.ErrorContext(ctx, "evaluation panicked",
					"document_type", in.Document.DocumentType,
					"panic", fmt.Sprint(r),
				)
			}
			verdict = fallbackVerdict()
			fellBack = true
		}
		if e.metrics != nil {
			e.metrics.RecordEvaluation(string(verdict.Status), string(verdict.RiskLevel), fellBack, time.Since(start))
		}
	}()

	if in.Requirement.DocumentType == "" {
		fellBack = true
		return fallbackVerdict()
	}

	verdict = e.applyRubric(in)

	if e.judgment != nil {
		judged, err := e.consultJudgment(ctx, in, verdict)
		if err != nil {
			if e.logger != nil {
				e.logger.WarnContext(ctx, "judgment oracle failed",
					"document_type", in.Document.DocumentType,
					"error", err.Error(),
				)
			}
			// A consulted oracle that cannot answer leaves the check
			// unverifiable; the document goes to manual review.
			fellBack = true
			return fallbackVerdict()
		}
		verdict = judged
	}

	verdict.RiskLevel = clampRisk(verdict.Status, verdict.RiskLevel)
	return verdict
}

// applyRubric is the deterministic decision policy.
func (e *Evaluator) applyRubric(in Input) ComplianceVerdict {
	req := in.Requirement
	doc := in.Document
	strict := e.strictBar(req, in.Profile)
	lowData := in.Profile.DataCompleteness > 0 && in.Profile.DataCompleteness < e.lowCompleteness

	var findings []Finding

	// Wrong document type is unusable regardless of anything else.
	if rules.NormalizeDocumentType(doc.DocumentType) != req.DocumentType {
		return ComplianceVerdict{
			Status:    StatusRejected,
			RiskLevel: RiskHigh,
			Rationale: fmt.Sprintf("document type %q does not satisfy requirement %q", doc.DocumentType, req.DocumentType),
			Findings:  []Finding{{Code: "wrong_document_type", Message: "submitted document is not the required type"}},
		}
	}

	// Expired documents are unusable when the requirement states a
	// validity constraint.
	if req.ValidityText != "" && doc.ExpiresAt != nil && doc.ExpiresAt.Before(time.Now()) {
		return ComplianceVerdict{
			Status:    StatusRejected,
			RiskLevel: RiskHigh,
			Rationale: "document is expired",
			Findings:  []Finding{{Code: "expired", Message: "document validity has lapsed"}},
		}
	}

	// Internally inconsistent dates are unusable.
	if doc.IssuedAt != nil && doc.ExpiresAt != nil && doc.ExpiresAt.Before(*doc.IssuedAt) {
		return ComplianceVerdict{
			Status:    StatusRejected,
			RiskLevel: RiskHigh,
			Rationale: "document dates are internally inconsistent",
			Findings:  []Finding{{Code: "inconsistent_dates", Message: "expiry precedes issue date"}},
		}
	}

	// Financial sufficiency, when the rule states a minimum and the
	// document carries an amount.
	if in.Financial != nil && in.Financial.MinimumBalance > 0 && doc.Amount != nil {
		minimum := in.Financial.MinimumBalance
		shortfall := (minimum - *doc.Amount) / minimum

		switch {
		case shortfall >= 0.20:
			finding := Finding{Code: "amount_shortfall", Message: fmt.Sprintf("stated amount is %.0f%% below the required minimum", shortfall*100)}
			if lowData {
				// Uncertainty resolves conservatively, not punitively.
				return ComplianceVerdict{
					Status:    StatusNeedFix,
					RiskLevel: RiskMedium,
					Rationale: "amount appears far below the required minimum, but applicant data is incomplete",
					Findings:  append(findings, finding, Finding{Code: "low_data_completeness", Message: "applicant profile is largely incomplete"}),
				}
			}
			return ComplianceVerdict{
				Status:    StatusRejected,
				RiskLevel: RiskHigh,
				Rationale: "stated amount is far below the required minimum",
				Findings:  append(findings, finding),
			}

		case shortfall > 0:
			risk := RiskLow
			if strict {
				risk = RiskMedium
			}
			return ComplianceVerdict{
				Status:    StatusNeedFix,
				RiskLevel: risk,
				Rationale: "stated amount is marginally below the required minimum",
				Findings:  append(findings, Finding{Code: "amount_shortfall", Message: "amount slightly under the stated minimum"}),
			}
		}
	}

	// Strict bar: a risk driver targeting this document type demands a
	// fully populated document, not just a plausible one.
	if strict && len(doc.Fields) == 0 && doc.Text == "" {
		return ComplianceVerdict{
			Status:    StatusNeedFix,
			RiskLevel: RiskMedium,
			Rationale: "risk profile requires complete document details, but none were extracted",
			Findings:  append(findings, Finding{Code: "incomplete_document", Message: "no usable content extracted from document"}),
		}
	}

	// Empty documents cannot be verified.
	if doc.Text == "" && len(doc.Fields) == 0 && doc.Amount == nil {
		return ComplianceVerdict{
			Status:    StatusNeedFix,
			RiskLevel: RiskLow,
			Rationale: "document content could not be extracted",
			Findings:  append(findings, Finding{Code: "empty_document", Message: "no text or structured fields available"}),
		}
	}

	risk := RiskLow
	if strict {
		risk = RiskMedium
	}
	return ComplianceVerdict{
		Status:    StatusApproved,
		RiskLevel: risk,
		Rationale: "document satisfies the requirement",
		Findings:  findings,
	}
}

// driverTargets maps a risk driver to the document type slugs it makes
// strict.
var driverTargets = map[string][]string{
	"low_funds":      {"bank_statement", "sponsor_letter", "payslip", "tax_return"},
	"weak_ties":      {"employment_letter", "property_deed", "family_certificate", "enrollment_certificate"},
	"limited_travel": {"travel_itinerary", "previous_visa", "passport"},
}

// strictBar reports whether the applicant's risk drivers target this
// requirement's document type.
func (e *Evaluator) strictBar(req rules.Requirement, profile ApplicantProfile) bool {
	for _, driver := range profile.RiskDrivers {
		for _, target := range driverTargets[driver] {
			if target == req.DocumentType {
				return true
			}
		}
	}
	return false
}

// consultJudgment asks the oracle for rationale and findings, then
// post-processes its output so it cannot contradict the rubric.
func (e *Evaluator) consultJudgment(ctx context.Context, in Input, rubric ComplianceVerdict) (ComplianceVerdict, error) {
	start := time.Now()
	judged, err := e.judgment.Judge(ctx, in, rubric)
	if e.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordOracleCall("judge", status, time.Since(start))
	}
	if err != nil {
		return rubric, err
	}
	if judged == nil {
		return rubric, fmt.Errorf("judgment oracle returned no output")
	}

	out := rubric
	if judged.Rationale != "" {
		out.Rationale = judged.Rationale
	}
	if judged.RiskLevel != "" {
		out.RiskLevel = clampRisk(out.Status, judged.RiskLevel)
	}
	out.Findings = append(out.Findings, judged.Findings...)
	return out, nil
}
