package providers

import (
	"context"
	"fmt"
)

// Canonical provider names used across the registry, storage and API
const (
	NameGPT      = "GPT"
	NameClaude   = "Claude"
	NameGemini   = "Gemini"
	NameGrok     = "Grok"
	NameDeepSeek = "DeepSeek"
)

// SystemConfig carries the instruction text and generation limits applied
// uniformly to every provider for a single query.
type SystemConfig struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Adapter translates a normalized completion request into one vendor's HTTP
// call. A single failed attempt is final; retries are not performed here.
type Adapter interface {
	Name() string
	Complete(ctx context.Context, prompt string, cfg SystemConfig) (string, error)
}

// ProviderError is returned when a vendor answers with a non-success status
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}
