// backend/internal/api/handlers/admin.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexus-edu/nexus/backend/internal/analytics"
	"github.com/nexus-edu/nexus/backend/internal/database"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const analyticsCacheTTL = 5 * time.Minute

// ModelToggler covers the registry operations the admin surface needs
type ModelToggler interface {
	Authorizer
	SetEnabled(token, modelName string, enabled bool) error
	ListEnabled() []registry.Descriptor
}

type AdminHandler struct {
	registry   ModelToggler
	promptRepo models.SystemPromptRepository
	rankRepo   models.RankRepository
	cache      *database.Cache
	logger     *logrus.Logger
}

func NewAdminHandler(
	reg ModelToggler,
	promptRepo models.SystemPromptRepository,
	rankRepo models.RankRepository,
	cache *database.Cache,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		registry:   reg,
		promptRepo: promptRepo,
		rankRepo:   rankRepo,
		cache:      cache,
		logger:     logger,
	}
}

// HandleListModels returns the currently enabled provider names. Public:
// knowing which vendors participate does not break anonymization of
// individual responses.
func (h *AdminHandler) HandleListModels(c *gin.Context) {
	descriptors := h.registry.ListEnabled()
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	utils.SuccessResponse(c, http.StatusOK, "Enabled models", names)
}

// HandleModelToggle enables or disables a provider. Admin only.
func (h *AdminHandler) HandleModelToggle(c *gin.Context) {
	var req models.ModelToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid toggle format", err)
		return
	}

	token := req.Token
	if token == "" {
		token = BearerToken(c)
	}

	if err := h.registry.SetEnabled(token, req.ModelName, *req.Enabled); err != nil {
		switch {
		case errors.Is(err, registry.ErrUnauthenticated):
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", err)
		case errors.Is(err, registry.ErrForbidden):
			utils.ErrorResponse(c, http.StatusForbidden, "Administrator role required", err)
		case errors.Is(err, registry.ErrUnknownProvider):
			utils.ErrorResponse(c, http.StatusNotFound, "Unknown provider", err)
		default:
			h.logger.WithError(err).Error("Model toggle failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to toggle model", err)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Model updated", gin.H{
		"model_name": req.ModelName,
		"enabled":    *req.Enabled,
	})
}

// HandleListPrompts returns every system prompt configuration. Admin only.
func (h *AdminHandler) HandleListPrompts(c *gin.Context) {
	if !h.authorize(c, BearerToken(c)) {
		return
	}

	prompts, err := h.promptRepo.GetAll()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list prompts")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list prompts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Prompts retrieved", prompts)
}

// HandleActivatePrompt makes one system prompt configuration active,
// deactivating all others. Admin only.
func (h *AdminHandler) HandleActivatePrompt(c *gin.Context) {
	var req models.ActivatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	token := req.Token
	if token == "" {
		token = BearerToken(c)
	}
	if !h.authorize(c, token) {
		return
	}

	id := c.Param("id")
	if err := h.promptRepo.Activate(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Prompt not found", err)
			return
		}
		h.logger.WithError(err).Error("Prompt activation failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to activate prompt", err)
		return
	}

	h.logger.WithField("prompt_id", id).Info("System prompt activated")
	utils.SuccessResponse(c, http.StatusOK, "Prompt activated", gin.H{"id": id})
}

// HandleAnalytics returns the descriptive statistics report over all stored
// ranks. Admin only; cached briefly since it scans every rank.
func (h *AdminHandler) HandleAnalytics(c *gin.Context) {
	if !h.authorize(c, BearerToken(c)) {
		return
	}

	ctx := c.Request.Context()

	if h.cache != nil {
		var cached analytics.Summary
		if err := h.cache.GetCachedAnalyticsSummary(ctx, &cached); err == nil {
			utils.SuccessResponse(c, http.StatusOK, "Analytics retrieved", cached)
			return
		}
	}

	observations, err := h.rankRepo.GetObservations()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load rank observations")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load analytics", err)
		return
	}

	summary := analytics.Summarize(observations)

	if h.cache != nil {
		if err := h.cache.CacheAnalyticsSummary(ctx, summary, analyticsCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache analytics summary")
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Analytics retrieved", summary)
}

func (h *AdminHandler) authorize(c *gin.Context, token string) bool {
	if _, err := h.registry.Authorize(token); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, registry.ErrForbidden) {
			status = http.StatusForbidden
		}
		utils.ErrorResponse(c, status, "Administrator access required", err)
		return false
	}
	return true
}
