package evaluator

import (
	"strings"

	"lumina-hq/polaris/pkg/rules"
)

// EvaluateCondition applies a predicate to the applicant profile. A nil
// condition always matches. A condition over an unknown field never
// matches, regardless of operator: missing data fails closed.
func EvaluateCondition(cond *rules.Condition, profile ApplicantProfile) bool {
	if cond == nil {
		return true
	}

	value, ok := profileField(profile, cond.Field)
	if !ok {
		return false
	}

	equal := strings.EqualFold(value, cond.Literal)
	if cond.Operator == rules.OperatorNotEqual {
		return !equal
	}
	return equal
}

// profileField resolves a condition field name against the profile.
// Names follow the payload convention (camelCase); absent or empty
// values resolve as unknown.
func profileField(profile ApplicantProfile, field string) (string, bool) {
	var value string
	switch field {
	case "sponsorType":
		value = profile.SponsorType
	case "employmentStatus":
		value = profile.EmploymentStatus
	case "financialSufficiency":
		value = profile.FinancialSufficiency
	case "tiesStrength":
		value = profile.TiesStrength
	case "travelHistory":
		value = profile.TravelHistory
	default:
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// ApplicableRequirements filters a rule set down to the requirements
// whose conditions match the applicant profile.
func ApplicableRequirements(data rules.RuleSetData, profile ApplicantProfile) []rules.Requirement {
	out := make([]rules.Requirement, 0, len(data.Requirements))
	for _, req := range data.Requirements {
		if EvaluateCondition(req.Condition, profile) {
			out = append(out, req)
		}
	}
	return out
}
