package extractor

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFenceRe  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	plainFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractJSONPayload locates the JSON object inside raw oracle output.
// Oracles wrap payloads unpredictably, so three strategies are tried in
// order: a ```json fence, a plain ``` fence, and finally the outermost
// balanced {...} in the text.
func ExtractJSONPayload(raw string) (string, error) {
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s, nil
		}
	}
	if m := plainFenceRe.FindStringSubmatch(raw); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s, nil
		}
	}
	if s := balancedObject(raw); s != "" {
		return s, nil
	}
	return "", fmt.Errorf("no JSON object found in oracle output")
}

// balancedObject returns the first balanced top-level {...} in s,
// tracking string literals so braces inside values do not miscount.
func balancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
