package extractor

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleSetSchemaJSON is the contract every coerced oracle payload must
// satisfy before it becomes a candidate.
const ruleSetSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["requirements"],
  "properties": {
    "requirements": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["documentType", "category", "description"],
        "properties": {
          "documentType": {"type": "string", "minLength": 1},
          "category": {"enum": ["required", "highly_recommended", "optional"]},
          "description": {"type": "string"},
          "validityText": {"type": "string"},
          "formatText": {"type": "string"},
          "condition": {
            "type": "object",
            "required": ["field", "operator", "literal"],
            "properties": {
              "field": {"type": "string", "minLength": 1},
              "operator": {"enum": ["eq", "ne"]},
              "literal": {"type": "string"}
            },
            "additionalProperties": false
          }
        },
        "additionalProperties": false
      }
    },
    "financial": {
      "type": "object",
      "required": ["minimumBalance", "currency"],
      "properties": {
        "minimumBalance": {"type": "number", "minimum": 0},
        "currency": {"type": "string", "minLength": 1}
      },
      "additionalProperties": false
    },
    "processing": {
      "type": "object",
      "required": ["processingDays"],
      "properties": {
        "processingDays": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "fee": {
      "type": "object",
      "required": ["visaFee", "currency"],
      "properties": {
        "visaFee": {"type": "number", "minimum": 0},
        "currency": {"type": "string", "minLength": 1}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false
}`

var ruleSetSchema = mustCompileRuleSetSchema()

func mustCompileRuleSetSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://polaris.schemas.local/ruleset.schema.json"
	if err := c.AddResource(url, strings.NewReader(ruleSetSchemaJSON)); err != nil {
		panic(fmt.Sprintf("rule set schema load failed: %v", err))
	}
	schema, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("rule set schema compile failed: %v", err))
	}
	return schema
}

// validatePayload checks a coerced payload against the rule-set schema.
func validatePayload(payload map[string]interface{}) error {
	return ruleSetSchema.Validate(payload)
}
