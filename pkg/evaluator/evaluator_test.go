package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"lumina-hq/polaris/pkg/rules"
)

func amount(v float64) *float64 { return &v }

func bankRequirement() rules.Requirement {
	return rules.Requirement{
		DocumentType: "bank_statement",
		Category:     rules.CategoryRequired,
		Description:  "Bank statements covering the last 3 months",
		ValidityText: "issued within 3 months",
	}
}

func financialRule() *rules.FinancialRule {
	return &rules.FinancialRule{MinimumBalance: 10000, Currency: "EUR"}
}

func TestEvaluate_Approved(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "Statement for account ending 1234",
			Amount:       amount(12000),
			Currency:     "EUR",
		},
		Profile: ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s (%s)", verdict.Status, verdict.Rationale)
	}
	if verdict.RiskLevel != RiskLow {
		t.Errorf("expected LOW risk, got %s", verdict.RiskLevel)
	}
}

func TestEvaluate_WrongDocumentType(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Document:    DocumentContent{DocumentType: "utility_bill", Text: "some text"},
		Profile:     ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", verdict.Status)
	}
	if verdict.RiskLevel != RiskHigh {
		t.Errorf("expected HIGH risk, got %s", verdict.RiskLevel)
	}
	if len(verdict.Findings) == 0 || verdict.Findings[0].Code != "wrong_document_type" {
		t.Errorf("expected wrong_document_type finding, got %+v", verdict.Findings)
	}
}

func TestEvaluate_LargeShortfallRejected(t *testing.T) {
	e := New()
	// 20% below the 10000 minimum.
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			Amount:       amount(8000),
		},
		Profile: ApplicantProfile{FinancialSufficiency: "low", DataCompleteness: 1.0},
	})

	if verdict.Status == StatusApproved {
		t.Fatalf("20%% shortfall must never be APPROVED, got %s", verdict.Status)
	}
	if verdict.Status != StatusRejected {
		t.Errorf("expected REJECTED with full data, got %s", verdict.Status)
	}
}

func TestEvaluate_LowCompletenessSoftensRejection(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			Amount:       amount(5000),
		},
		Profile: ApplicantProfile{DataCompleteness: 0.2},
	})

	if verdict.Status != StatusNeedFix {
		t.Fatalf("low data completeness should soften to NEED_FIX, got %s", verdict.Status)
	}
}

func TestEvaluate_MarginalShortfallNeedsFix(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			Amount:       amount(9500),
		},
		Profile: ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusNeedFix {
		t.Fatalf("expected NEED_FIX for marginal shortfall, got %s", verdict.Status)
	}
	if verdict.RiskLevel != RiskLow {
		t.Errorf("trivial fix should stay LOW risk, got %s", verdict.RiskLevel)
	}
}

func TestEvaluate_RiskDriverRaisesBar(t *testing.T) {
	e := New()
	in := Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			Amount:       amount(9900),
		},
		Profile: ApplicantProfile{
			RiskDrivers:      []string{"low_funds"},
			DataCompleteness: 1.0,
		},
	}
	verdict := e.Evaluate(context.Background(), in)
	if verdict.Status != StatusNeedFix {
		t.Fatalf("expected NEED_FIX under strict bar, got %s", verdict.Status)
	}
	if verdict.RiskLevel != RiskMedium {
		t.Errorf("strict bar shortfall should carry MEDIUM risk, got %s", verdict.RiskLevel)
	}

	// The same driver does not tighten unrelated documents.
	passport := e.Evaluate(context.Background(), Input{
		Requirement: rules.Requirement{DocumentType: "visa_photo", Category: rules.CategoryRequired},
		Document:    DocumentContent{DocumentType: "visa_photo", Text: "photo metadata"},
		Profile:     in.Profile,
	})
	if passport.Status != StatusApproved {
		t.Errorf("unrelated document should still pass, got %s", passport.Status)
	}
}

func TestEvaluate_ExpiredDocument(t *testing.T) {
	e := New()
	expired := time.Now().Add(-24 * time.Hour)
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			ExpiresAt:    &expired,
		},
		Profile: ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusRejected {
		t.Fatalf("expected REJECTED for expired document, got %s", verdict.Status)
	}
}

func TestEvaluate_EmptyDocumentNeverThrows(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Document:    DocumentContent{DocumentType: "bank_statement"},
		Profile:     ApplicantProfile{},
	})

	if verdict.Status != StatusNeedFix {
		t.Fatalf("expected NEED_FIX for empty document, got %s", verdict.Status)
	}
	if verdict.Rationale == "" {
		t.Error("verdict must carry a rationale")
	}
}

func TestEvaluate_MalformedInputFallsBack(t *testing.T) {
	e := New()
	verdict := e.Evaluate(context.Background(), Input{})

	want := fallbackVerdict()
	if verdict.Status != want.Status || verdict.RiskLevel != want.RiskLevel || verdict.Rationale != want.Rationale {
		t.Errorf("expected fixed fallback %+v, got %+v", want, verdict)
	}
}

type scriptedJudgment struct {
	judgment *Judgment
	err      error
}

func (s *scriptedJudgment) Judge(ctx context.Context, in Input, rubric ComplianceVerdict) (*Judgment, error) {
	return s.judgment, s.err
}

func TestEvaluate_JudgmentEnrichesVerdict(t *testing.T) {
	e := New(WithJudgmentOracle(&scriptedJudgment{
		judgment: &Judgment{
			Rationale: "statement covers the full window and exceeds the minimum",
			RiskLevel: RiskLow,
			Findings:  []Finding{{Code: "coverage_ok", Message: "3 month window covered"}},
		},
	}))

	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Financial:   financialRule(),
		Document: DocumentContent{
			DocumentType: "bank_statement",
			Text:         "statement",
			Amount:       amount(12000),
		},
		Profile: ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusApproved {
		t.Fatalf("judgment must not change status, got %s", verdict.Status)
	}
	if verdict.Rationale != "statement covers the full window and exceeds the minimum" {
		t.Errorf("expected oracle rationale, got %q", verdict.Rationale)
	}
	if len(verdict.Findings) == 0 {
		t.Error("expected oracle findings appended")
	}
}

func TestEvaluate_JudgmentCannotLowerRejectionRisk(t *testing.T) {
	e := New(WithJudgmentOracle(&scriptedJudgment{
		judgment: &Judgment{RiskLevel: RiskLow},
	}))

	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Document:    DocumentContent{DocumentType: "utility_bill", Text: "text"},
		Profile:     ApplicantProfile{DataCompleteness: 1.0},
	})

	if verdict.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", verdict.Status)
	}
	if verdict.RiskLevel == RiskLow {
		t.Error("rejection risk must never clamp below MEDIUM")
	}
}

func TestEvaluate_JudgmentFailureFallsBack(t *testing.T) {
	e := New(WithJudgmentOracle(&scriptedJudgment{err: errors.New("unparseable payload")}))

	verdict := e.Evaluate(context.Background(), Input{
		Requirement: bankRequirement(),
		Document:    DocumentContent{DocumentType: "bank_statement", Text: "statement"},
		Profile:     ApplicantProfile{DataCompleteness: 1.0},
	})

	want := fallbackVerdict()
	if verdict.Status != want.Status || verdict.RiskLevel != want.RiskLevel || verdict.Rationale != want.Rationale {
		t.Errorf("expected fixed fallback, got %+v", verdict)
	}
}

func TestClampRisk(t *testing.T) {
	tests := []struct {
		status VerdictStatus
		risk   RiskLevel
		want   RiskLevel
	}{
		{StatusRejected, RiskLow, RiskMedium},
		{StatusRejected, RiskHigh, RiskHigh},
		{StatusApproved, RiskHigh, RiskMedium},
		{StatusApproved, RiskLow, RiskLow},
		{StatusNeedFix, RiskLow, RiskLow},
		{StatusNeedFix, RiskHigh, RiskHigh},
	}

	for _, tt := range tests {
		if got := clampRisk(tt.status, tt.risk); got != tt.want {
			t.Errorf("clampRisk(%s, %s) = %s, want %s", tt.status, tt.risk, got, tt.want)
		}
	}
}
