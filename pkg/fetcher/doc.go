// Package fetcher retrieves source documents over HTTP and reduces them
// to plain text suitable for extraction.
//
// The HTTP fetcher retries transient failures (network errors, 5xx
// responses) with exponential backoff and treats client errors as
// permanent. Response bodies are capped to a configurable size, and
// fetched HTML is cleaned: scripts, styles, and markup are stripped,
// entities are decoded, and whitespace is collapsed.
package fetcher
