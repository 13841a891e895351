package providers

import (
	"github.com/sirupsen/logrus"
)

const (
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultDeepSeekModel   = "deepseek-chat"
)

// DeepSeek adapter. OpenAI-compatible chat completions API.
type DeepSeek struct {
	chatCompatible
}

func NewDeepSeek(baseURL, apiKey string, logger *logrus.Logger) *DeepSeek {
	return &DeepSeek{chatCompatible{
		name:    NameDeepSeek,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultDeepSeekModel,
		client:  newAPIClient(logger),
	}}
}
