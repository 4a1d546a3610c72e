package rules

import (
	"fmt"
	"regexp"
)

// legacyConditionRe matches the free-string predicate form carried by
// older rule payloads: `sponsorType === 'self'`, `employmentStatus != "employed"`.
var legacyConditionRe = regexp.MustCompile(`^\s*(\w+)\s*(===|!==|==|!=)\s*(?:'([^']*)'|"([^"]*)"|(\S+))\s*$`)

// ParseCondition parses a predicate in the legacy free-string form into
// a structured Condition. Anything unparseable is an error; callers
// decide whether that fails open or closed.
func ParseCondition(raw string) (*Condition, error) {
	m := legacyConditionRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("unparseable condition %q", raw)
	}

	op := OperatorEqual
	if m[2] == "!==" || m[2] == "!=" {
		op = OperatorNotEqual
	}

	literal := m[3]
	if literal == "" && m[4] != "" {
		literal = m[4]
	}
	if literal == "" && m[5] != "" {
		literal = m[5]
	}

	return &Condition{
		Field:    m[1],
		Operator: op,
		Literal:  literal,
	}, nil
}
