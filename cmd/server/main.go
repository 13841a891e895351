// backend/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nexus-edu/nexus/backend/internal/aggregator"
	"github.com/nexus-edu/nexus/backend/internal/api/handlers"
	"github.com/nexus-edu/nexus/backend/internal/config"
	"github.com/nexus-edu/nexus/backend/internal/database"
	"github.com/nexus-edu/nexus/backend/internal/health"
	"github.com/nexus-edu/nexus/backend/internal/middleware"
	"github.com/nexus-edu/nexus/backend/internal/migration"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/nexus-edu/nexus/backend/internal/repository"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
)

func main() {
	// No .env in production deployments
	_ = godotenv.Load()

	logger := utils.GetLogger()
	logger.Info("Starting Nexus backend...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateDatabase(); err != nil {
		logger.WithError(err).Fatal("Database configuration validation failed")
	}

	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	migrationRunner := migration.NewRunner(dbManager, logger)
	if err := migrationRunner.RunMigrations("migrations"); err != nil {
		logger.WithError(err).Fatal("Database migrations failed")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	modelRegistry := registry.New(cfg, repoManager.ModelConfig, repoManager.UserRole, logger)
	aggregatorService := aggregator.NewService(
		modelRegistry,
		repoManager.Query,
		repoManager.Response,
		repoManager.SystemPrompt,
		logger,
	)

	var counterStore middleware.CounterStore
	if dbManager.Redis != nil {
		counterStore = middleware.NewRedisCounterStore(dbManager.Redis)
	}
	rateLimiter := middleware.NewRateLimiter(
		counterStore,
		cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		logger,
	)

	generateHandler := handlers.NewGenerateHandler(
		aggregatorService,
		modelRegistry,
		repoManager.Query,
		repoManager.Response,
		logger,
	)
	rankHandler := handlers.NewRankHandler(repoManager.Rank, cache, logger)
	adminHandler := handlers.NewAdminHandler(
		modelRegistry,
		repoManager.SystemPrompt,
		repoManager.Rank,
		cache,
		logger,
	)
	healthChecker := health.NewChecker(dbManager, logger)

	router := setupRouter(rateLimiter, generateHandler, rankHandler, adminHandler, healthChecker)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
}

func setupRouter(
	rateLimiter *middleware.RateLimiter,
	generateHandler *handlers.GenerateHandler,
	rankHandler *handlers.RankHandler,
	adminHandler *handlers.AdminHandler,
	healthChecker *health.Checker,
) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())

	router.GET("/health", healthChecker.Handler())

	api := router.Group("/api")
	{
		api.POST("/generate", rateLimiter.RateLimit(), generateHandler.HandleGenerate)
		api.GET("/queries", generateHandler.HandleListQueries)
		api.GET("/queries/:id/responses", generateHandler.HandleGetResponses)
		api.GET("/queries/:id/ranks", rankHandler.HandleGetRanks)
		api.POST("/ranks", rankHandler.HandleSaveRank)
		api.GET("/models", adminHandler.HandleListModels)

		admin := api.Group("/admin")
		{
			admin.POST("/models", adminHandler.HandleModelToggle)
			admin.GET("/prompts", adminHandler.HandleListPrompts)
			admin.POST("/prompts/:id/activate", adminHandler.HandleActivatePrompt)
			admin.GET("/analytics", adminHandler.HandleAnalytics)
		}
	}

	return router
}
