package models

type GenerateRequest struct {
	Query string `json:"query" binding:"required"`
}

type GeneratedResponse struct {
	ResponseID string `json:"response_id"`
	ModelName  string `json:"model_name"`
	Content    string `json:"content"`
	Error      string `json:"error,omitempty"`
}

type AnonymizedResponse struct {
	ResponseID string `json:"response_id"`
	Label      string `json:"label"`
	Content    string `json:"content"`
	Error      string `json:"error,omitempty"`
}

type GenerateResponse struct {
	QueryID    string               `json:"query_id"`
	Responses  []GeneratedResponse  `json:"responses"`
	Anonymized []AnonymizedResponse `json:"anonymized"`
}

type RankRequest struct {
	ResponseID string `json:"response_id" binding:"required"`
	Score      int    `json:"score" binding:"required"`
	Feedback   string `json:"feedback"`
}

type ModelToggleRequest struct {
	Token     string `json:"token"`
	ModelName string `json:"model_name" binding:"required"`
	Enabled   *bool  `json:"enabled" binding:"required"`
}

type ActivatePromptRequest struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
