package providers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-haiku-latest"
	anthropicVersion        = "2023-06-01"
)

// Anthropic adapter ("Claude"). The system prompt travels as a top-level
// field, not as a message role.
type Anthropic struct {
	baseURL string
	apiKey  string
	model   string
	client  apiClient
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewAnthropic(baseURL, apiKey string, logger *logrus.Logger) *Anthropic {
	return &Anthropic{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultAnthropicModel,
		client:  newAPIClient(logger),
	}
}

func (a *Anthropic) Name() string {
	return NameClaude
}

func (a *Anthropic) Complete(ctx context.Context, prompt string, cfg SystemConfig) (string, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		// max_tokens is mandatory for the messages API
		maxTokens = 1024
	}

	payload := anthropicRequest{
		Model:       a.model,
		System:      cfg.Prompt,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
	}

	var response anthropicResponse
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	if err := a.client.postJSON(ctx, NameClaude, a.baseURL+"/v1/messages", headers, payload, &response); err != nil {
		return "", err
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("Claude returned empty content")
	}

	return response.Content[0].Text, nil
}
