package rules

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a record lookup failed.
type NotFoundError struct {
	// Kind is the record kind ("candidate", "rule_set", "source", "snapshot").
	Kind string

	// ID is the identifier that was looked up.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ApprovalConflictError indicates an approval or rejection was attempted
// against a candidate that is no longer pending. The store guarantees no
// state changed when this error is returned.
type ApprovalConflictError struct {
	// CandidateID is the candidate that was acted on.
	CandidateID string

	// State is the candidate's actual state at decision time.
	State ApprovalState
}

// Error implements the error interface.
func (e *ApprovalConflictError) Error() string {
	return fmt.Sprintf("candidate %q is %s, not pending", e.CandidateID, e.State)
}

// IsApprovalConflict reports whether err is an ApprovalConflictError.
func IsApprovalConflict(err error) bool {
	var ac *ApprovalConflictError
	return errors.As(err, &ac)
}

// DuplicateCandidateError indicates a candidate already exists for a
// snapshot. Extraction treats this as success and returns the existing
// candidate rather than creating a sibling.
type DuplicateCandidateError struct {
	// SnapshotID is the snapshot that already has a candidate.
	SnapshotID string

	// ExistingID is the id of the candidate already on record.
	ExistingID string
}

// Error implements the error interface.
func (e *DuplicateCandidateError) Error() string {
	return fmt.Sprintf("snapshot %q already has candidate %q", e.SnapshotID, e.ExistingID)
}

// StorageError wraps a storage backend failure with the backend name and
// the operation that failed.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %s failed: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
