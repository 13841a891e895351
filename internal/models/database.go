package models

// GORM models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Query lifecycle statuses
const (
	QueryStatusPending   = "pending"
	QueryStatusCompleted = "completed"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Base model with common fields
type BaseModel struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Query represents one user-submitted prompt under evaluation
type Query struct {
	BaseModel
	UserID    string `json:"user_id" gorm:"not null;index"`
	QueryText string `json:"query_text" gorm:"not null"`
	Status    string `json:"status" gorm:"default:'pending';check:status IN ('pending','completed')"`

	// Associations
	Responses []ProviderResponse `json:"responses" gorm:"foreignKey:QueryID"`
}

// ProviderResponse is one vendor's answer to a Query. Position records the
// randomized presentation order assigned at generation time; anonymized labels
// are always derived from it, so a revisit never re-shuffles.
type ProviderResponse struct {
	BaseModel
	QueryID      string `json:"query_id" gorm:"type:uuid;not null;index"`
	ModelName    string `json:"model_name" gorm:"not null"`
	Content      string `json:"content" gorm:"not null"`
	ErrorMessage string `json:"error_message,omitempty"`
	Position     int    `json:"position" gorm:"not null"`

	// Associations
	Query Query `json:"-" gorm:"foreignKey:QueryID"`
}

// Rank is an evaluator's ordinal judgment of one response (1 = best).
// Uniqueness of (response, evaluator) is a hard database constraint; distinct
// scores among siblings remain a soft invariant left to the client.
type Rank struct {
	BaseModel
	ResponseID  string `json:"response_id" gorm:"type:uuid;not null;uniqueIndex:uq_rank_response_evaluator"`
	EvaluatorID string `json:"evaluator_id" gorm:"not null;uniqueIndex:uq_rank_response_evaluator"`
	Score       int    `json:"score" gorm:"not null"`
	Feedback    string `json:"feedback"`

	// Associations
	Response ProviderResponse `json:"-" gorm:"foreignKey:ResponseID"`
}

// EnabledModelConfig is the per-provider toggle consulted on every generation
type EnabledModelConfig struct {
	BaseModel
	ModelName    string `json:"model_name" gorm:"unique;not null"`
	Enabled      bool   `json:"enabled" gorm:"default:true"`
	DisplayOrder int    `json:"display_order" gorm:"default:0"`
}

// SystemPromptConfig holds the instruction text applied uniformly to all
// providers. Exactly one row is active at a time.
type SystemPromptConfig struct {
	BaseModel
	Name        string  `json:"name" gorm:"not null"`
	Content     string  `json:"content" gorm:"not null"`
	MaxTokens   int     `json:"max_tokens" gorm:"default:1024"`
	Temperature float64 `json:"temperature" gorm:"default:0.7"`
	IsActive    bool    `json:"is_active" gorm:"default:false;index"`
}

// UserRole maps an API token to a user and role for admin checks
type UserRole struct {
	BaseModel
	UserID string `json:"user_id" gorm:"unique;not null"`
	Token  string `json:"-" gorm:"unique;not null"`
	Role   string `json:"role" gorm:"default:'user';check:role IN ('user','admin')"`
}

// RankObservation is a flattened (provider, evaluator, score) row consumed by
// the analytics summarizer.
type RankObservation struct {
	Provider    string `json:"provider"`
	ResponseID  string `json:"response_id"`
	EvaluatorID string `json:"evaluator_id"`
	Score       int    `json:"score"`
}

// Database interfaces for repository pattern
type QueryRepository interface {
	Create(query *Query) error
	GetByID(id string) (*Query, error)
	GetByUser(userID string, limit int) ([]Query, error)
	UpdateStatus(id string, status string) error
}

type ResponseRepository interface {
	CreateAll(responses []ProviderResponse) error
	GetByQueryID(queryID string) ([]ProviderResponse, error)
}

type RankRepository interface {
	Create(rank *Rank) error
	GetByQueryAndEvaluator(queryID, evaluatorID string) (map[string]int, error)
	GetObservations() ([]RankObservation, error)
}

type ModelConfigRepository interface {
	GetAll() ([]EnabledModelConfig, error)
	SetEnabled(modelName string, enabled bool) error
}

type SystemPromptRepository interface {
	GetActive() (*SystemPromptConfig, error)
	GetAll() ([]SystemPromptConfig, error)
	Create(config *SystemPromptConfig) error
	Activate(id string) error
}

type UserRoleRepository interface {
	GetByToken(token string) (*UserRole, error)
	Upsert(role *UserRole) error
}

// TableName methods for custom table names
func (Query) TableName() string              { return "queries" }
func (ProviderResponse) TableName() string   { return "provider_responses" }
func (Rank) TableName() string               { return "ranks" }
func (EnabledModelConfig) TableName() string { return "enabled_model_configs" }
func (SystemPromptConfig) TableName() string { return "system_prompt_configs" }
func (UserRole) TableName() string           { return "user_roles" }

// Model validation methods
func (q *Query) Validate() error {
	if q.QueryText == "" {
		return fmt.Errorf("query text is required")
	}
	if q.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	return nil
}

func (r *Rank) Validate() error {
	if r.ResponseID == "" {
		return fmt.Errorf("response ID is required")
	}
	if r.EvaluatorID == "" {
		return fmt.Errorf("evaluator ID is required")
	}
	if r.Score < 1 {
		return fmt.Errorf("score must be 1 or greater")
	}
	return nil
}

// GORM hooks
func (q *Query) BeforeCreate(tx *gorm.DB) error {
	if err := q.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return q.Validate()
}

func (r *Rank) BeforeCreate(tx *gorm.DB) error {
	if err := r.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return r.Validate()
}
