package providers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// Gemini adapter. The credential rides as a query parameter and the system
// instruction has its own top-level block.
type Gemini struct {
	baseURL string
	apiKey  string
	model   string
	client  apiClient
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGemini(baseURL, apiKey string, logger *logrus.Logger) *Gemini {
	return &Gemini{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		client:  newAPIClient(logger),
	}
}

func (g *Gemini) Name() string {
	return NameGemini
}

func (g *Gemini) Complete(ctx context.Context, prompt string, cfg SystemConfig) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	}
	if cfg.Prompt != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: cfg.Prompt}}}
	}
	payload.GenerationConfig.MaxOutputTokens = cfg.MaxTokens
	payload.GenerationConfig.Temperature = cfg.Temperature

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	var response geminiResponse
	if err := g.client.postJSON(ctx, NameGemini, url, nil, payload, &response); err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}
