package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lumina-hq/polaris/pkg/config"
)

const judgeSystemPrompt = `You review visa application documents against a single requirement.
You receive the requirement, the document content, the applicant profile, and a preliminary verdict.
Respond with a single JSON object: {"rationale": "...", "riskLevel": "LOW|MEDIUM|HIGH", "findings": [{"code": "...", "message": "..."}]}.
Explain the preliminary verdict in plain language for the applicant. Do not change the decision.`

// HTTPJudgment calls an OpenAI-compatible chat-completions endpoint for
// free-text judgment. Verdicts survive without it, so the client is
// single-attempt: a failed call surfaces as an error and the evaluator
// routes the check to manual review.
type HTTPJudgment struct {
	config config.OracleConfig
	client *http.Client
}

// NewHTTPJudgment creates a judgment client from the oracle config.
func NewHTTPJudgment(cfg config.OracleConfig) *HTTPJudgment {
	return &HTTPJudgment{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type judgeRequest struct {
	Requirement interface{}       `json:"requirement"`
	Document    DocumentContent   `json:"document"`
	Profile     ApplicantProfile  `json:"profile"`
	Verdict     ComplianceVerdict `json:"preliminaryVerdict"`
}

// Judge implements JudgmentOracle.
func (j *HTTPJudgment) Judge(ctx context.Context, in Input, rubric ComplianceVerdict) (*Judgment, error) {
	contextJSON, err := json.Marshal(judgeRequest{
		Requirement: in.Requirement,
		Document:    in.Document,
		Profile:     in.Profile,
		Verdict:     rubric,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judgment context: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"model": j.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": judgeSystemPrompt},
			{"role": "user", "content": string(contextJSON)},
		},
		"temperature": j.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judgment request: %w", err)
	}

	url := strings.TrimSuffix(j.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if j.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.config.APIKey)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judgment request failed with status %d", resp.StatusCode)
	}

	var chat struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("malformed judgment response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("no choices in judgment response")
	}

	var judgment Judgment
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &judgment); err != nil {
		return nil, fmt.Errorf("unparseable judgment payload: %w", err)
	}
	judgment.RiskLevel = normalizeRiskLevel(string(judgment.RiskLevel))
	return &judgment, nil
}

// normalizeRiskLevel maps arbitrary oracle casing onto the known levels,
// dropping anything unrecognized.
func normalizeRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return ""
	}
}
