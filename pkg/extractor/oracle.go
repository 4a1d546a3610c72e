package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/telemetry/logging"
)

// Oracle produces a raw rule-set payload from cleaned document text.
// The previous rule set, when present, is passed as context so the
// oracle preserves stable document type slugs across versions.
type Oracle interface {
	Extract(ctx context.Context, cleanedText string, prev *rules.RuleSetData) (json.RawMessage, error)
}

const extractSystemPrompt = `You extract visa requirement rules from official embassy and government pages.
Respond with a single JSON object and nothing else, in this shape:
{
  "requirements": [
    {"documentType": "bank_statement", "category": "required", "description": "...", "validityText": "...", "formatText": "...", "condition": {"field": "sponsorType", "operator": "eq", "literal": "self"}}
  ],
  "financial": {"minimumBalance": 0, "currency": "EUR"},
  "processing": {"processingDays": 0},
  "fee": {"visaFee": 0, "currency": "EUR"}
}
Rules: "category" is one of required, highly_recommended, optional. "condition" is only present when the page restricts a document to a class of applicants. Omit "financial", "processing", or "fee" entirely when the page does not state them. Never invent values.`

// chat-completions wire types, request side trimmed to what the
// extraction call needs.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// HTTPOracle calls an OpenAI-compatible chat-completions endpoint.
type HTTPOracle struct {
	config config.OracleConfig
	client *http.Client
	logger *logging.Logger
}

// OracleOption configures an HTTPOracle.
type OracleOption func(*HTTPOracle)

// WithOracleLogger attaches a logger to the oracle client.
func WithOracleLogger(logger *logging.Logger) OracleOption {
	return func(o *HTTPOracle) {
		o.logger = logger.WithComponent("oracle")
	}
}

// WithOracleHTTPClient overrides the HTTP client, mainly for tests.
func WithOracleHTTPClient(client *http.Client) OracleOption {
	return func(o *HTTPOracle) {
		o.client = client
	}
}

// NewHTTPOracle creates an oracle client from the given configuration.
func NewHTTPOracle(cfg config.OracleConfig, opts ...OracleOption) *HTTPOracle {
	o := &HTTPOracle{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
				ForceAttemptHTTP2: true,
			},
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract sends the document text to the chat-completions endpoint and
// returns the raw assistant payload. Transient failures (network, 5xx,
// 429) are retried with exponential backoff.
func (o *HTTPOracle) Extract(ctx context.Context, cleanedText string, prev *rules.RuleSetData) (json.RawMessage, error) {
	userPrompt := buildExtractPrompt(cleanedText, prev)

	reqBody := chatRequest{
		Model: o.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: extractSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: o.config.Temperature,
	}

	var resp chatResponse
	if err := o.doJSON(ctx, &reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &OracleError{Message: "no choices in response"}
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

func buildExtractPrompt(cleanedText string, prev *rules.RuleSetData) string {
	var b strings.Builder
	b.WriteString("Extract the visa requirement rules from the page text below.\n")
	if prev != nil {
		if prevJSON, err := json.Marshal(prev); err == nil {
			b.WriteString("\nThe previously approved rule set for this source, for slug continuity only:\n")
			b.Write(prevJSON)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n--- PAGE TEXT ---\n")
	b.WriteString(cleanedText)
	return b.String()
}

// doJSON posts the request with retries and decodes the response.
func (o *HTTPOracle) doJSON(ctx context.Context, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	url := strings.TrimSuffix(o.config.BaseURL, "/") + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			if o.logger != nil {
				o.logger.DebugContext(ctx, "retrying oracle call",
					"attempt", attempt,
					"backoff", backoff.String(),
				)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := o.doOnce(ctx, url, payload)
		if err == nil {
			if err := json.Unmarshal(body, respBody); err != nil {
				return &OracleError{Message: "malformed response body", Cause: err}
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return err
		}
		var oe *OracleError
		if errors.As(err, &oe) && !oe.Retryable {
			return err
		}
		if o.logger != nil {
			o.logger.WarnContext(ctx, "oracle call failed",
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}
	}
	return lastErr
}

func (o *HTTPOracle) doOnce(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &OracleError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &OracleError{Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &OracleError{Retryable: true, Cause: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &OracleError{
			StatusCode: resp.StatusCode,
			Retryable:  true,
			Message:    truncate(string(body), 256),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}

	case resp.StatusCode >= 500:
		return nil, &OracleError{
			StatusCode: resp.StatusCode,
			Retryable:  true,
			Message:    truncate(string(body), 256),
		}

	default:
		// 4xx other than 429: the request itself is wrong, do not retry.
		return nil, &OracleError{
			StatusCode: resp.StatusCode,
			Retryable:  false,
			Message:    truncate(string(body), 256),
		}
	}
}

// parseRetryAfter parses a Retry-After header in either delay-seconds
// or HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
