package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/telemetry/logging"
)

// Result is a fetched and cleaned source document.
type Result struct {
	// URL is the URL the document was fetched from.
	URL string

	// Title is the document title, when one could be extracted.
	Title string

	// Content is the cleaned plain-text body.
	Content string

	// RawSize is the size in bytes of the response body before cleaning.
	RawSize int

	// HTTPStatus is the response status code.
	HTTPStatus int

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}

// Fetcher retrieves a source document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// FetchError describes a failed fetch. Retryable reports whether the
// failure was transient (network error, 5xx) or permanent (4xx,
// oversized body).
type FetchError struct {
	URL        string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch %s failed", e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// HTTPFetcher fetches documents over HTTP with retry and backoff.
type HTTPFetcher struct {
	config config.FetcherConfig
	client *http.Client
	logger *logging.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithLogger attaches a logger to the fetcher.
func WithLogger(logger *logging.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger.WithComponent("fetcher")
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// NewHTTPFetcher creates a fetcher from the given configuration.
func NewHTTPFetcher(cfg config.FetcherConfig, opts ...Option) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	f := &HTTPFetcher{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the document at url, retrying transient failures with
// exponential backoff. Client errors and oversized bodies fail
// immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.config.RetryBaseDelay << (attempt - 1)
			if f.logger != nil {
				f.logger.DebugContext(ctx, "retrying fetch",
					"url", url,
					"attempt", attempt,
					"backoff", backoff.String(),
				)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := f.fetchOnce(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, err
		}
		var fe *FetchError
		if errors.As(err, &fe) && !fe.Retryable {
			return nil, err
		}

		if f.logger != nil {
			f.logger.WarnContext(ctx, "fetch attempt failed",
				"url", url,
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}
	}

	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Retryable: false, Cause: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500,
		}
	}

	// Read one byte past the cap so oversized bodies are detected
	// instead of silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, Retryable: true, Cause: err}
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return nil, &FetchError{
			URL:       url,
			Retryable: false,
			Cause:     fmt.Errorf("response body exceeds %d bytes", f.config.MaxBodyBytes),
		}
	}

	title, content := CleanHTML(string(body))
	return &Result{
		URL:        url,
		Title:      title,
		Content:    content,
		RawSize:    len(body),
		HTTPStatus: resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
