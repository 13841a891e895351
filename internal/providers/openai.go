package providers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAI-style chat completion envelope, also spoken by Grok and DeepSeek
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatCompatible implements Complete for every vendor that speaks the OpenAI
// chat-completions envelope.
type chatCompatible struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  apiClient
}

func (a *chatCompatible) Name() string {
	return a.name
}

func (a *chatCompatible) Complete(ctx context.Context, prompt string, cfg SystemConfig) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if cfg.Prompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: cfg.Prompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload := chatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	var response chatCompletionResponse
	headers := map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	}

	if err := a.client.postJSON(ctx, a.name, a.baseURL+"/v1/chat/completions", headers, payload, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", a.name)
	}

	return response.Choices[0].Message.Content, nil
}

// OpenAI adapter ("GPT")
type OpenAI struct {
	chatCompatible
}

func NewOpenAI(baseURL, apiKey string, logger *logrus.Logger) *OpenAI {
	return &OpenAI{chatCompatible{
		name:    NameGPT,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultOpenAIModel,
		client:  newAPIClient(logger),
	}}
}
