// backend/internal/api/handlers/generate.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexus-edu/nexus/backend/internal/aggregator"
	"github.com/nexus-edu/nexus/backend/internal/anonymize"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Generator is the slice of the aggregator the handler depends on
type Generator interface {
	Generate(ctx context.Context, userID, queryText string) (*models.Query, error)
}

// Authorizer resolves admin credentials for privileged views
type Authorizer interface {
	Authorize(token string) (*models.UserRole, error)
}

type GenerateHandler struct {
	generator    Generator
	authorizer   Authorizer
	queryRepo    models.QueryRepository
	responseRepo models.ResponseRepository
	logger       *logrus.Logger
}

func NewGenerateHandler(
	generator Generator,
	authorizer Authorizer,
	queryRepo models.QueryRepository,
	responseRepo models.ResponseRepository,
	logger *logrus.Logger,
) *GenerateHandler {
	return &GenerateHandler{
		generator:    generator,
		authorizer:   authorizer,
		queryRepo:    queryRepo,
		responseRepo: responseRepo,
		logger:       logger,
	}
}

// HandleGenerate processes a query submission and fans it out to all enabled
// providers.
func (h *GenerateHandler) HandleGenerate(c *gin.Context) {
	startTime := time.Now()

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	queryText := strings.TrimSpace(req.Query)
	if queryText == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query cannot be empty", fmt.Errorf("query is empty"))
		return
	}
	if len(req.Query) > aggregator.MaxQueryLength {
		utils.ErrorResponse(c, http.StatusBadRequest,
			fmt.Sprintf("Query too long (max %d characters)", aggregator.MaxQueryLength),
			fmt.Errorf("query length %d exceeds limit", len(req.Query)))
		return
	}

	userID := EvaluatorIdentity(c)

	h.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"query_len":  len(queryText),
		"ip_address": c.ClientIP(),
	}).Info("Processing generation request")

	query, err := h.generator.Generate(c.Request.Context(), userID, queryText)
	if err != nil {
		h.logger.WithError(err).Error("Generation failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate responses", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"query_id":      query.ID,
		"responses":     len(query.Responses),
		"response_time": time.Since(startTime).Milliseconds(),
	}).Info("Generation completed")

	c.JSON(http.StatusOK, buildGenerateResponse(query))
}

// HandleListQueries returns the caller's query history
func (h *GenerateHandler) HandleListQueries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}

	queries, err := h.queryRepo.GetByUser(EvaluatorIdentity(c), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list queries")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list queries", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Queries retrieved", queries)
}

// HandleGetResponses returns a query's responses. The default view is
// anonymized and labeled by stored position; `view=admin` requires an
// administrator credential and exposes true provider names.
func (h *GenerateHandler) HandleGetResponses(c *gin.Context) {
	queryID := c.Param("id")

	query, err := h.queryRepo.GetByID(queryID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Query not found", err)
		return
	}

	admin := false
	if c.Query("view") == "admin" {
		if _, err := h.authorizer.Authorize(BearerToken(c)); err != nil {
			status := http.StatusUnauthorized
			if err == registry.ErrForbidden {
				status = http.StatusForbidden
			}
			utils.ErrorResponse(c, status, "Administrator access required", err)
			return
		}
		admin = true
	}

	if !admin && query.UserID != EvaluatorIdentity(c) {
		utils.ErrorResponse(c, http.StatusForbidden, "Not your query", fmt.Errorf("query belongs to another user"))
		return
	}

	responses, err := h.responseRepo.GetByQueryID(queryID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load responses", err)
		return
	}

	if admin {
		utils.SuccessResponse(c, http.StatusOK, "Responses retrieved", responses)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Responses retrieved", anonymize.Views(responses))
}

func buildGenerateResponse(query *models.Query) models.GenerateResponse {
	out := models.GenerateResponse{
		QueryID:    query.ID,
		Responses:  make([]models.GeneratedResponse, len(query.Responses)),
		Anonymized: anonymize.Views(query.Responses),
	}
	for i, resp := range query.Responses {
		out.Responses[i] = models.GeneratedResponse{
			ResponseID: resp.ID,
			ModelName:  resp.ModelName,
			Content:    resp.Content,
			Error:      resp.ErrorMessage,
		}
	}
	return out
}

// EvaluatorIdentity resolves the caller to a stable evaluator identifier:
// the trusted user header when present, otherwise a client fingerprint.
func EvaluatorIdentity(c *gin.Context) string {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID
	}
	return utils.GenerateEvaluatorID(c.ClientIP() + c.GetHeader("User-Agent"))
}

// BearerToken extracts a bearer credential from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}
