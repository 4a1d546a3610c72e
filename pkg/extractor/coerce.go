package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lumina-hq/polaris/pkg/rules"
)

// ParseRuleSet hardens raw oracle output into rule-set data. The
// payload is located, decoded loosely, coerced onto the schema shape,
// and validated; a failing payload gets exactly one repair pass before
// the parse is abandoned with ExtractionSchemaError.
func ParseRuleSet(raw string) (rules.RuleSetData, error) {
	var zero rules.RuleSetData

	payload, err := ExtractJSONPayload(raw)
	if err != nil {
		return zero, &ExtractionSchemaError{Detail: err.Error(), Payload: truncate(raw, 512)}
	}

	var loose map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &loose); err != nil {
		return zero, &ExtractionSchemaError{Detail: fmt.Sprintf("payload is not a JSON object: %v", err), Payload: truncate(payload, 512)}
	}

	coerced := coercePayload(loose, false)
	if err := validatePayload(coerced); err != nil {
		coerced = coercePayload(loose, true)
		if err := validatePayload(coerced); err != nil {
			return zero, &ExtractionSchemaError{Detail: err.Error(), Payload: truncate(payload, 512)}
		}
	}

	return decodeRuleSet(coerced)
}

// coercePayload maps a loosely decoded payload onto the schema shape.
// Unknown fields are dropped and recoverable type mismatches are fixed.
// In repair mode, gaps that validation would reject are filled with
// conservative defaults. Both passes are idempotent.
func coercePayload(m map[string]interface{}, repair bool) map[string]interface{} {
	reqs := m["requirements"]
	if reqs == nil {
		// Older payloads carry the list under requiredDocuments.
		reqs = m["requiredDocuments"]
	}
	out := map[string]interface{}{
		"requirements": coerceRequirements(reqs, repair),
	}
	if f := coerceFinancial(m["financial"]); f != nil {
		out["financial"] = f
	}
	if p := coerceProcessing(m["processing"]); p != nil {
		out["processing"] = p
	}
	if f := coerceFee(m["fee"]); f != nil {
		out["fee"] = f
	}
	return out
}

func coerceRequirements(v interface{}, repair bool) []interface{} {
	var items []interface{}
	switch t := v.(type) {
	case []interface{}:
		items = t
	case map[string]interface{}:
		// A lone object instead of a one-element array.
		items = []interface{}{t}
	}

	out := make([]interface{}, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		r := coerceRequirement(obj, repair)
		if r == nil {
			continue
		}
		// documentType is unique within a rule set; the first entry for
		// a slug wins, matching the diff engine.
		if slug, _ := r["documentType"].(string); slug != "" {
			if seen[slug] {
				continue
			}
			seen[slug] = true
		}
		out = append(out, r)
	}
	return out
}

func coerceRequirement(item map[string]interface{}, repair bool) map[string]interface{} {
	out := map[string]interface{}{}

	docType := stringField(item, "documentType")
	if docType == "" && repair {
		// Some payloads carry a display name instead of a slug.
		if name := stringField(item, "name"); name != "" {
			docType = name
		}
	}
	if docType == "" && repair {
		// A requirement with no identity at all still stays in the set
		// so a reviewer sees it; the diff engine groups it as unknown.
		docType = "unknown"
	}
	if docType != "" {
		out["documentType"] = rules.NormalizeDocumentType(docType)
	}

	if cat := stringField(item, "category"); cat != "" {
		out["category"] = string(rules.ParseRequirementCategory(cat))
	} else if repair {
		out["category"] = string(rules.CategoryOptional)
	}

	if _, present := item["description"]; present {
		out["description"] = stringField(item, "description")
	} else if repair {
		out["description"] = ""
	}

	if v := stringField(item, "validityText"); v != "" {
		out["validityText"] = v
	}
	if f := stringField(item, "formatText"); f != "" {
		out["formatText"] = f
	}
	if c := coerceCondition(item["condition"]); c != nil {
		out["condition"] = c
	}
	return out
}

func coerceCondition(v interface{}) map[string]interface{} {
	if raw, ok := v.(string); ok {
		// Legacy payloads carry conditions as free strings like
		// `sponsorType === 'self'`.
		cond, err := rules.ParseCondition(raw)
		if err != nil {
			return nil
		}
		return map[string]interface{}{
			"field":    cond.Field,
			"operator": string(cond.Operator),
			"literal":  cond.Literal,
		}
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	field := stringField(obj, "field")
	literal := stringField(obj, "literal")
	op := normalizeOperator(stringField(obj, "operator"))
	if field == "" || op == "" {
		return nil
	}
	return map[string]interface{}{
		"field":    field,
		"operator": op,
		"literal":  literal,
	}
}

// normalizeOperator accepts both the structured operator names and the
// legacy comparison tokens that appear in older rule payloads.
func normalizeOperator(op string) string {
	switch op {
	case "eq", "==", "===":
		return "eq"
	case "ne", "!=", "!==":
		return "ne"
	default:
		return ""
	}
}

func coerceFinancial(v interface{}) map[string]interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	balance, ok := numberField(obj, "minimumBalance")
	currency := strings.ToUpper(stringField(obj, "currency"))
	if !ok || balance < 0 || currency == "" {
		return nil
	}
	return map[string]interface{}{
		"minimumBalance": balance,
		"currency":       currency,
	}
}

func coerceProcessing(v interface{}) map[string]interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	days, ok := numberField(obj, "processingDays")
	if !ok || days < 0 {
		return nil
	}
	return map[string]interface{}{
		"processingDays": math.Round(days),
	}
}

func coerceFee(v interface{}) map[string]interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	fee, ok := numberField(obj, "visaFee")
	currency := strings.ToUpper(stringField(obj, "currency"))
	if !ok || fee < 0 || currency == "" {
		return nil
	}
	return map[string]interface{}{
		"visaFee":  fee,
		"currency": currency,
	}
}

// stringField returns the trimmed string value of a key, or "" when the
// value is absent, null, or not a string.
func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// numberField returns a numeric value, accepting numeric strings since
// oracles quote numbers unpredictably.
func numberField(m map[string]interface{}, key string) (float64, bool) {
	switch t := m[key].(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func decodeRuleSet(payload map[string]interface{}) (rules.RuleSetData, error) {
	var data rules.RuleSetData
	raw, err := json.Marshal(payload)
	if err != nil {
		return data, fmt.Errorf("failed to re-encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to decode payload: %w", err)
	}
	return data, nil
}

// Confidence scores extraction completeness deterministically: document
// requirements carry the most weight, then the financial block, then
// processing time, with a bonus when the snapshot had enough text to
// trust the extraction.
func Confidence(data rules.RuleSetData, snapshotChars int) float64 {
	score := 0.0
	if len(data.Requirements) > 0 {
		score += 0.35
	}
	if data.Financial != nil {
		score += 0.25
	}
	if data.Processing != nil {
		score += 0.2
	}
	if snapshotChars >= 1000 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
