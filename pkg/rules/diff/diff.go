package diff

import (
	"sort"
	"strconv"

	"lumina-hq/polaris/pkg/rules"
)

// Compute returns the structural delta between an old payload and a new
// one. old may be nil (no approved version yet); the result then carries
// only additions. Requirements missing a document type are matched under
// the "unknown" slug rather than failing the diff.
func Compute(old *rules.RuleSetData, next rules.RuleSetData) rules.Diff {
	var d rules.Diff

	oldReqs := indexByDocumentType(oldRequirements(old))
	newReqs := indexByDocumentType(next.Requirements)

	for _, slug := range sortedKeys(newReqs) {
		nr := newReqs[slug]
		or, ok := oldReqs[slug]
		if !ok {
			d.Added = append(d.Added, nr)
			continue
		}
		if changed := requirementChanges(or, nr); len(changed) > 0 {
			d.Modified = append(d.Modified, rules.RequirementChange{
				DocumentType: slug,
				Changed:      changed,
			})
		}
	}

	for _, slug := range sortedKeys(oldReqs) {
		if _, ok := newReqs[slug]; !ok {
			d.Removed = append(d.Removed, oldReqs[slug])
		}
	}

	d.ScalarChanges = scalarChanges(old, next)

	return d
}

// oldRequirements unwraps the old payload, tolerating nil.
func oldRequirements(old *rules.RuleSetData) []rules.Requirement {
	if old == nil {
		return nil
	}
	return old.Requirements
}

// indexByDocumentType keys requirements by their normalized slug.
// When duplicates collide the first occurrence wins; a well-formed rule
// set has unique slugs, so collisions only happen on malformed input.
func indexByDocumentType(reqs []rules.Requirement) map[string]rules.Requirement {
	idx := make(map[string]rules.Requirement, len(reqs))
	for _, r := range reqs {
		slug := rules.NormalizeDocumentType(r.DocumentType)
		r.DocumentType = slug
		if _, ok := idx[slug]; !ok {
			idx[slug] = r
		}
	}
	return idx
}

func sortedKeys(m map[string]rules.Requirement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// requirementChanges records old/new pairs for the comparable fields.
// ValidityText and FormatText are presentation detail and deliberately
// excluded from modification detection.
func requirementChanges(old, next rules.Requirement) []rules.FieldChange {
	var changed []rules.FieldChange

	if old.Category != next.Category {
		changed = append(changed, rules.FieldChange{
			Field: "category",
			Old:   string(old.Category),
			New:   string(next.Category),
		})
	}
	if old.Description != next.Description {
		changed = append(changed, rules.FieldChange{
			Field: "description",
			Old:   old.Description,
			New:   next.Description,
		})
	}
	if old.Condition.String() != next.Condition.String() {
		changed = append(changed, rules.FieldChange{
			Field: "condition",
			Old:   old.Condition.String(),
			New:   next.Condition.String(),
		})
	}

	return changed
}

// scalarChanges compares the financial, processing, and fee sections.
// A section appears in the result only when at least one side defines it
// and a field differs.
func scalarChanges(old *rules.RuleSetData, next rules.RuleSetData) []rules.ScalarChange {
	var changes []rules.ScalarChange

	var oldFin *rules.FinancialRule
	var oldProc *rules.ProcessingRule
	var oldFee *rules.FeeRule
	if old != nil {
		oldFin, oldProc, oldFee = old.Financial, old.Processing, old.Fee
	}

	if oldFin != nil || next.Financial != nil {
		oldBal, oldCur := financialFields(oldFin)
		newBal, newCur := financialFields(next.Financial)
		changes = appendScalar(changes, "financial", "minimumBalance", oldBal, newBal)
		changes = appendScalar(changes, "financial", "currency", oldCur, newCur)
	}

	if oldProc != nil || next.Processing != nil {
		changes = appendScalar(changes, "processing", "processingDays",
			processingFields(oldProc), processingFields(next.Processing))
	}

	if oldFee != nil || next.Fee != nil {
		oldFeeVal, oldCur := feeFields(oldFee)
		newFeeVal, newCur := feeFields(next.Fee)
		changes = appendScalar(changes, "fee", "visaFee", oldFeeVal, newFeeVal)
		changes = appendScalar(changes, "fee", "currency", oldCur, newCur)
	}

	return changes
}

func appendScalar(changes []rules.ScalarChange, section, field, old, next string) []rules.ScalarChange {
	if old == next {
		return changes
	}
	return append(changes, rules.ScalarChange{
		Section: section,
		Field:   field,
		Old:     old,
		New:     next,
	})
}

// Field renderers turn section values into comparable strings, with an
// absent section rendered as empty strings.

func financialFields(f *rules.FinancialRule) (balance, currency string) {
	if f == nil {
		return "", ""
	}
	return strconv.FormatFloat(f.MinimumBalance, 'f', -1, 64), f.Currency
}

func processingFields(p *rules.ProcessingRule) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(p.ProcessingDays)
}

func feeFields(f *rules.FeeRule) (fee, currency string) {
	if f == nil {
		return "", ""
	}
	return strconv.FormatFloat(f.VisaFee, 'f', -1, 64), f.Currency
}
