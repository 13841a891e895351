// backend/internal/api/handlers/rank.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexus-edu/nexus/backend/internal/database"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/repository"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

type RankHandler struct {
	rankRepo models.RankRepository
	cache    *database.Cache
	logger   *logrus.Logger
}

func NewRankHandler(rankRepo models.RankRepository, cache *database.Cache, logger *logrus.Logger) *RankHandler {
	return &RankHandler{
		rankRepo: rankRepo,
		cache:    cache,
		logger:   logger,
	}
}

// HandleSaveRank records an evaluator's ordinal judgment of one response
func (h *RankHandler) HandleSaveRank(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid rank format", err)
		return
	}

	rank := &models.Rank{
		ResponseID:  req.ResponseID,
		EvaluatorID: EvaluatorIdentity(c),
		Score:       req.Score,
		Feedback:    req.Feedback,
	}
	if err := rank.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid rank", err)
		return
	}

	if err := h.rankRepo.Create(rank); err != nil {
		if errors.Is(err, repository.ErrDuplicateRank) {
			utils.ErrorResponse(c, http.StatusConflict, "Response already ranked", err)
			return
		}
		h.logger.WithError(err).Error("Failed to save rank")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save rank", err)
		return
	}

	// Stored ranks change the admin report
	if h.cache != nil {
		if err := h.cache.InvalidateAnalyticsSummary(context.Background()); err != nil {
			h.logger.WithError(err).Warn("Failed to invalidate analytics cache")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"response_id": rank.ResponseID,
		"evaluator":   rank.EvaluatorID,
		"score":       rank.Score,
	}).Info("Rank recorded")

	utils.SuccessResponse(c, http.StatusCreated, "Rank recorded", rank)
}

// HandleGetRanks returns the caller's scores for one query as a
// responseID -> score mapping.
func (h *RankHandler) HandleGetRanks(c *gin.Context) {
	queryID := c.Param("id")

	scores, err := h.rankRepo.GetByQueryAndEvaluator(queryID, EvaluatorIdentity(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ranks")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load ranks", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ranks retrieved", scores)
}
