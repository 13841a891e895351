package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexus-edu/nexus/backend/internal/database"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Checker reports the health of the service's dependencies
type Checker struct {
	dbManager *database.Manager
	logger    *logrus.Logger
}

func NewChecker(dbManager *database.Manager, logger *logrus.Logger) *Checker {
	return &Checker{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Check pings every dependency. Postgres down means unhealthy; Redis down
// only degrades (rate limiting fails open without it).
func (h *Checker) Check() models.HealthResponse {
	services := make(map[string]string)
	status := "healthy"

	if err := h.dbManager.PingDatabase(); err != nil {
		h.logger.WithError(err).Error("PostgreSQL health check failed")
		services["postgresql"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["postgresql"] = "healthy"
	}

	if err := h.dbManager.PingRedis(); err != nil {
		services["redis"] = "unavailable"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		services["redis"] = "healthy"
	}

	return models.HealthResponse{
		Status:    status,
		Service:   "nexus-backend",
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	}
}

// Handler exposes the check as a gin endpoint
func (h *Checker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := h.Check()
		code := http.StatusOK
		if result.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, result)
	}
}
