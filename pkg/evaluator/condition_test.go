package evaluator

import (
	"testing"

	"lumina-hq/polaris/pkg/rules"
)

func TestEvaluateCondition(t *testing.T) {
	profile := ApplicantProfile{
		SponsorType:      "sponsor",
		EmploymentStatus: "employed",
	}

	tests := []struct {
		name string
		cond *rules.Condition
		want bool
	}{
		{name: "nil condition always applies", cond: nil, want: true},
		{
			name: "equality match",
			cond: &rules.Condition{Field: "sponsorType", Operator: rules.OperatorEqual, Literal: "sponsor"},
			want: true,
		},
		{
			name: "equality mismatch",
			cond: &rules.Condition{Field: "sponsorType", Operator: rules.OperatorEqual, Literal: "self"},
			want: false,
		},
		{
			name: "inequality match",
			cond: &rules.Condition{Field: "employmentStatus", Operator: rules.OperatorNotEqual, Literal: "student"},
			want: true,
		},
		{
			name: "unknown field fails closed",
			cond: &rules.Condition{Field: "shoeSize", Operator: rules.OperatorEqual, Literal: "44"},
			want: false,
		},
		{
			name: "unknown field fails closed even for inequality",
			cond: &rules.Condition{Field: "shoeSize", Operator: rules.OperatorNotEqual, Literal: "44"},
			want: false,
		},
		{
			name: "empty profile value fails closed",
			cond: &rules.Condition{Field: "tiesStrength", Operator: rules.OperatorEqual, Literal: "strong"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateCondition(tt.cond, profile); got != tt.want {
				t.Errorf("EvaluateCondition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplicableRequirements(t *testing.T) {
	data := rules.RuleSetData{
		Requirements: []rules.Requirement{
			{DocumentType: "passport", Category: rules.CategoryRequired},
			{
				DocumentType: "bank_statement",
				Category:     rules.CategoryRequired,
				Condition:    &rules.Condition{Field: "sponsorType", Operator: rules.OperatorEqual, Literal: "self"},
			},
			{
				DocumentType: "sponsor_letter",
				Category:     rules.CategoryRequired,
				Condition:    &rules.Condition{Field: "sponsorType", Operator: rules.OperatorEqual, Literal: "sponsor"},
			},
		},
	}

	selfFunded := ApplicableRequirements(data, ApplicantProfile{SponsorType: "self"})
	if len(selfFunded) != 2 {
		t.Fatalf("expected 2 requirements for self-funded, got %d", len(selfFunded))
	}
	if selfFunded[1].DocumentType != "bank_statement" {
		t.Errorf("expected bank_statement for self-funded, got %s", selfFunded[1].DocumentType)
	}

	sponsored := ApplicableRequirements(data, ApplicantProfile{SponsorType: "sponsor"})
	if len(sponsored) != 2 {
		t.Fatalf("expected 2 requirements for sponsored, got %d", len(sponsored))
	}
	if sponsored[1].DocumentType != "sponsor_letter" {
		t.Errorf("expected sponsor_letter for sponsored, got %s", sponsored[1].DocumentType)
	}

	// No sponsor type at all: both conditional requirements drop out.
	unknown := ApplicableRequirements(data, ApplicantProfile{})
	if len(unknown) != 1 || unknown[0].DocumentType != "passport" {
		t.Errorf("expected only unconditional requirement, got %+v", unknown)
	}
}
