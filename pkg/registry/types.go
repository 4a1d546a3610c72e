package registry

import (
	"errors"
	"fmt"
	"time"
)

// FetchStatus describes the outcome of the most recent fetch attempt
// for a source.
type FetchStatus string

const (
	// StatusNever marks a source that has not been fetched yet.
	StatusNever FetchStatus = "never"
	// StatusSuccess marks a source whose last fetch produced a snapshot.
	StatusSuccess FetchStatus = "success"
	// StatusFailed marks a source whose last fetch errored.
	StatusFailed FetchStatus = "failed"
)

// Source is a registered official document source for one
// country/category pair.
type Source struct {
	// ID uniquely identifies the source (e.g. "de-tourist-embassy").
	ID string `yaml:"id" json:"id"`

	// Name is a human-readable label.
	Name string `yaml:"name" json:"name"`

	// URL is the document location to fetch.
	URL string `yaml:"url" json:"url"`

	// CountryCode is the ISO 3166-1 alpha-2 destination country.
	CountryCode string `yaml:"country_code" json:"countryCode"`

	// Category is the visa category the source covers (e.g. "tourist").
	Category string `yaml:"category" json:"category"`

	// Priority orders sources within a pipeline run; higher runs first.
	Priority int `yaml:"priority" json:"priority"`

	// Active marks the source as eligible for scheduling. Sources are
	// never deleted; a deactivated source keeps its history but is
	// skipped by due scans. Registering a source (re)activates it.
	Active bool `yaml:"-" json:"active"`

	// FetchInterval is the minimum time between successful fetches.
	FetchInterval time.Duration `yaml:"fetch_interval" json:"fetchInterval"`

	// LastFetchedAt is the completion time of the most recent attempt.
	LastFetchedAt *time.Time `yaml:"-" json:"lastFetchedAt,omitempty"`

	// LastStatus is the outcome of the most recent attempt.
	LastStatus FetchStatus `yaml:"-" json:"lastStatus"`

	// LastError holds the truncated message of the most recent failure.
	LastError string `yaml:"-" json:"lastError,omitempty"`

	CreatedAt time.Time `yaml:"-" json:"createdAt"`
	UpdatedAt time.Time `yaml:"-" json:"updatedAt"`
}

// Due reports whether the source should be fetched at the given time.
// Deactivated sources are never due. Active sources that were never
// fetched or whose last attempt failed are always due; successful
// sources become due once their interval has elapsed.
func (s *Source) Due(now time.Time) bool {
	if !s.Active {
		return false
	}
	switch s.LastStatus {
	case StatusSuccess:
		if s.LastFetchedAt == nil {
			return true
		}
		return now.Sub(*s.LastFetchedAt) >= s.FetchInterval
	default:
		return true
	}
}

// Snapshot is an immutable record of one fetch attempt. Successful
// attempts carry the captured document; failed attempts carry only the
// HTTP status, leaving an audit trail of what was tried.
type Snapshot struct {
	// ID uniquely identifies the snapshot.
	ID string `json:"id"`

	// SourceID references the source the snapshot came from.
	SourceID string `json:"sourceId"`

	// Status is the fetch outcome, success or failed.
	Status FetchStatus `json:"status"`

	// HTTPStatus is the response status code, 0 when the request never
	// completed (network error, timeout).
	HTTPStatus int `json:"httpStatus,omitempty"`

	// URL is the location the content was fetched from.
	URL string `json:"url"`

	// Title is the extracted document title, if any.
	Title string `json:"title,omitempty"`

	// Content is the cleaned text extracted from the document.
	Content string `json:"content"`

	// RawSize is the size of the raw document body in bytes.
	RawSize int `json:"rawSize"`

	// ContentHash is the hex SHA-256 of Content. Two snapshots of the
	// same source with equal hashes carry identical text.
	ContentHash string `json:"contentHash"`

	// FetchedAt is when the snapshot was captured.
	FetchedAt time.Time `json:"fetchedAt"`
}

// NotFoundError is returned when a source or snapshot does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is a registry NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError is returned when a source definition is incomplete.
type ValidationError struct {
	SourceID string
	Message  string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.SourceID == "" {
		return fmt.Sprintf("invalid source: %s", e.Message)
	}
	return fmt.Sprintf("invalid source %s: %s", e.SourceID, e.Message)
}

// Validate checks that the source carries the fields the pipeline needs.
func (s *Source) Validate() error {
	if s.ID == "" {
		return &ValidationError{Message: "id is required"}
	}
	if s.URL == "" {
		return &ValidationError{SourceID: s.ID, Message: "url is required"}
	}
	if s.CountryCode == "" {
		return &ValidationError{SourceID: s.ID, Message: "country_code is required"}
	}
	if s.Category == "" {
		return &ValidationError{SourceID: s.ID, Message: "category is required"}
	}
	if s.FetchInterval < 0 {
		return &ValidationError{SourceID: s.ID, Message: "fetch_interval must not be negative"}
	}
	return nil
}
