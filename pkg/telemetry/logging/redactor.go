package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// Redactor removes credentials and applicant identifiers from log fields.
// Snapshot text and applicant profiles routinely contain email addresses,
// passport numbers, and phone numbers that must not land in log output.
type Redactor struct {
	patterns map[string]*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternEmail       = "email"
	PatternPassport    = "passport"
	PatternPhone       = "phone"
	PatternIBAN        = "iban"
)

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	r := &Redactor{patterns: make(map[string]*redactPattern)}

	patterns := map[string]struct {
		regex       string
		replacement string
	}{
		// API keys (sk- prefixed or key=... forms)
		PatternAPIKey: {
			regex:       `(sk-[a-zA-Z0-9]+|api[-_]?key[-_:=]\s*[a-zA-Z0-9]+)`,
			replacement: "sk-***",
		},

		// Bearer tokens in copied headers
		PatternBearerToken: {
			regex:       `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
			replacement: "Bearer ***",
		},

		// Email addresses
		PatternEmail: {
			regex:       `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			replacement: "***@***",
		},

		// Passport numbers: one or two letters, a digit, then 5-8 more
		// alphanumerics. Covers plain forms (AB1234567) and interleaved
		// ones (C01X00T47) without matching uppercase words.
		PatternPassport: {
			regex:       `\b[A-Z]{1,2}\d[A-Z0-9]{5,8}\b`,
			replacement: "P***",
		},

		// Phone numbers
		PatternPhone: {
			regex:       `\b\+?\d{1,3}[-.\s]?\(?\d{2,4}\)?[-.\s]?\d{3}[-.\s]?\d{3,4}\b`,
			replacement: "***-***-****",
		},

		// IBANs appearing in bank statement excerpts
		PatternIBAN: {
			regex:       `\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`,
			replacement: "**IBAN**",
		},
	}

	for name, p := range patterns {
		r.patterns[name] = &redactPattern{
			name:        name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		}
	}

	return r
}

// RedactString redacts sensitive content from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// RedactArgs redacts sensitive content from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && r.isSensitiveKey(key) {
			redacted[i] = r.redactValue(redacted[i])
			continue
		}

		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "secret", "token",
		"api_key", "apikey",
		"auth", "authorization",
		"passport", "applicant_id",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// redactValue redacts a sensitive value completely, keeping a short prefix
// of string values for correlation.
func (r *Redactor) redactValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
