package repository

import (
	"errors"
	"fmt"

	"github.com/nexus-edu/nexus/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateRank is returned when an evaluator ranks the same response twice
var ErrDuplicateRank = errors.New("rank already exists for this response and evaluator")

// QueryRepositoryImpl implements QueryRepository
type QueryRepositoryImpl struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) models.QueryRepository {
	return &QueryRepositoryImpl{db: db}
}

func (r *QueryRepositoryImpl) Create(query *models.Query) error {
	return r.db.Create(query).Error
}

func (r *QueryRepositoryImpl) GetByID(id string) (*models.Query, error) {
	var query models.Query
	err := r.db.Preload("Responses").First(&query, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &query, nil
}

func (r *QueryRepositoryImpl) GetByUser(userID string, limit int) ([]models.Query, error) {
	var queries []models.Query
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *QueryRepositoryImpl) UpdateStatus(id string, status string) error {
	return r.db.Model(&models.Query{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ResponseRepositoryImpl implements ResponseRepository
type ResponseRepositoryImpl struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) models.ResponseRepository {
	return &ResponseRepositoryImpl{db: db}
}

func (r *ResponseRepositoryImpl) CreateAll(responses []models.ProviderResponse) error {
	return r.db.Create(&responses).Error
}

func (r *ResponseRepositoryImpl) GetByQueryID(queryID string) ([]models.ProviderResponse, error) {
	var responses []models.ProviderResponse
	err := r.db.Where("query_id = ?", queryID).
		Order("position ASC").
		Find(&responses).Error
	return responses, err
}

// RankRepositoryImpl implements RankRepository
type RankRepositoryImpl struct {
	db *gorm.DB
}

func NewRankRepository(db *gorm.DB) models.RankRepository {
	return &RankRepositoryImpl{db: db}
}

func (r *RankRepositoryImpl) Create(rank *models.Rank) error {
	err := r.db.Create(rank).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRank
	}
	return err
}

func (r *RankRepositoryImpl) GetByQueryAndEvaluator(queryID, evaluatorID string) (map[string]int, error) {
	var ranks []models.Rank
	err := r.db.Joins("JOIN provider_responses ON provider_responses.id = ranks.response_id").
		Where("provider_responses.query_id = ? AND ranks.evaluator_id = ?", queryID, evaluatorID).
		Find(&ranks).Error
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(ranks))
	for _, rank := range ranks {
		scores[rank.ResponseID] = rank.Score
	}
	return scores, nil
}

func (r *RankRepositoryImpl) GetObservations() ([]models.RankObservation, error) {
	var observations []models.RankObservation
	err := r.db.Table("ranks").
		Select("provider_responses.model_name AS provider, ranks.response_id, ranks.evaluator_id, ranks.score").
		Joins("JOIN provider_responses ON provider_responses.id = ranks.response_id").
		Scan(&observations).Error
	return observations, err
}

// ModelConfigRepositoryImpl implements ModelConfigRepository
type ModelConfigRepositoryImpl struct {
	db *gorm.DB
}

func NewModelConfigRepository(db *gorm.DB) models.ModelConfigRepository {
	return &ModelConfigRepositoryImpl{db: db}
}

func (r *ModelConfigRepositoryImpl) GetAll() ([]models.EnabledModelConfig, error) {
	var configs []models.EnabledModelConfig
	err := r.db.Order("display_order ASC").Find(&configs).Error
	return configs, err
}

func (r *ModelConfigRepositoryImpl) SetEnabled(modelName string, enabled bool) error {
	config := models.EnabledModelConfig{
		ModelName: modelName,
		Enabled:   enabled,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"enabled": enabled}),
	}).Create(&config).Error
}

// SystemPromptRepositoryImpl implements SystemPromptRepository
type SystemPromptRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemPromptRepository(db *gorm.DB) models.SystemPromptRepository {
	return &SystemPromptRepositoryImpl{db: db}
}

func (r *SystemPromptRepositoryImpl) GetActive() (*models.SystemPromptConfig, error) {
	var config models.SystemPromptConfig
	err := r.db.Where("is_active = ?", true).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *SystemPromptRepositoryImpl) GetAll() ([]models.SystemPromptConfig, error) {
	var configs []models.SystemPromptConfig
	err := r.db.Order("created_at ASC").Find(&configs).Error
	return configs, err
}

func (r *SystemPromptRepositoryImpl) Create(config *models.SystemPromptConfig) error {
	return r.db.Create(config).Error
}

// Activate flips the single-active switch in one transaction: deactivate
// everything, then activate the requested row. Exactly one configuration is
// active afterwards.
func (r *SystemPromptRepositoryImpl) Activate(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SystemPromptConfig{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate prompts: %w", err)
		}

		result := tx.Model(&models.SystemPromptConfig{}).
			Where("id = ?", id).
			Update("is_active", true)
		if result.Error != nil {
			return fmt.Errorf("failed to activate prompt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UserRoleRepositoryImpl implements UserRoleRepository
type UserRoleRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) models.UserRoleRepository {
	return &UserRoleRepositoryImpl{db: db}
}

func (r *UserRoleRepositoryImpl) GetByToken(token string) (*models.UserRole, error) {
	var role models.UserRole
	err := r.db.Where("token = ?", token).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *UserRoleRepositoryImpl) Upsert(role *models.UserRole) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "role"}),
	}).Create(role).Error
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Query        models.QueryRepository
	Response     models.ResponseRepository
	Rank         models.RankRepository
	ModelConfig  models.ModelConfigRepository
	SystemPrompt models.SystemPromptRepository
	UserRole     models.UserRoleRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Query:        NewQueryRepository(db),
		Response:     NewResponseRepository(db),
		Rank:         NewRankRepository(db),
		ModelConfig:  NewModelConfigRepository(db),
		SystemPrompt: NewSystemPromptRepository(db),
		UserRole:     NewUserRoleRepository(db),
	}
}
