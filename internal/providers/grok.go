package providers

import (
	"github.com/sirupsen/logrus"
)

const (
	DefaultGrokBaseURL = "https://api.x.ai"
	defaultGrokModel   = "grok-2-latest"
)

// Grok adapter (x.ai). OpenAI-compatible chat completions API.
type Grok struct {
	chatCompatible
}

func NewGrok(baseURL, apiKey string, logger *logrus.Logger) *Grok {
	return &Grok{chatCompatible{
		name:    NameGrok,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultGrokModel,
		client:  newAPIClient(logger),
	}}
}
