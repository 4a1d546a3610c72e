package extractor

import (
	"errors"
	"fmt"
	"time"
)

// ExtractionSchemaError means the oracle payload could not be brought
// onto the rule-set shape, even after one repair pass.
type ExtractionSchemaError struct {
	// SnapshotID identifies the snapshot whose extraction failed.
	SnapshotID string

	// Detail is the schema violation from the final validation attempt.
	Detail string

	// Payload is the offending payload after coercion, for diagnostics.
	Payload string
}

func (e *ExtractionSchemaError) Error() string {
	return fmt.Sprintf("extraction for snapshot %s failed schema validation: %s", e.SnapshotID, e.Detail)
}

// IsSchemaError reports whether err is an ExtractionSchemaError.
func IsSchemaError(err error) bool {
	var se *ExtractionSchemaError
	return errors.As(err, &se)
}

// OracleError describes a failed oracle call.
type OracleError struct {
	StatusCode int
	Retryable  bool
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *OracleError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("oracle request failed with status %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("oracle request failed: %v", e.Cause)
	}
	return "oracle request failed"
}

func (e *OracleError) Unwrap() error {
	return e.Cause
}

// ErrNoOracle is returned by the adapter when extraction is requested
// but no oracle is configured.
var ErrNoOracle = errors.New("no extraction oracle configured")
