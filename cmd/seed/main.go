// backend/cmd/seed/main.go
//
// Seeds the provider configuration table, the default system prompt, and an
// administrator credential so a fresh deployment is immediately usable.
package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/nexus-edu/nexus/backend/internal/config"
	"github.com/nexus-edu/nexus/backend/internal/database"
	"github.com/nexus-edu/nexus/backend/internal/migration"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/providers"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

const defaultSystemPrompt = "You are a helpful teaching assistant. Answer the student's question clearly and concisely, showing your reasoning where it aids understanding."

func main() {
	migrationsPath := flag.String("migrations", "migrations", "path to SQL migration files")
	skipPrompt := flag.Bool("skip-prompt", false, "do not seed the default system prompt")
	flag.Parse()

	// No .env in production deployments
	_ = godotenv.Load()

	logger := utils.GetLogger()
	logger.Info("Starting Nexus seeder...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateDatabase(); err != nil {
		logger.WithError(err).Fatal("Database configuration validation failed")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := migration.NewRunner(dbManager, logger).RunMigrations(*migrationsPath); err != nil {
		logger.WithError(err).Fatal("Database migrations failed")
	}

	seedModelConfigs(dbManager, logger)
	if !*skipPrompt {
		seedSystemPrompt(dbManager, logger)
	}
	seedAdminRole(dbManager, logger)

	logger.Info("Seeding complete")
}

func seedModelConfigs(dbManager *database.Manager, logger *logrus.Logger) {
	allNames := []string{
		providers.NameGPT,
		providers.NameClaude,
		providers.NameGemini,
		providers.NameGrok,
		providers.NameDeepSeek,
	}
	enabled := make(map[string]bool, len(registry.DefaultEnabled))
	for _, name := range registry.DefaultEnabled {
		enabled[name] = true
	}

	for i, name := range allNames {
		row := models.EnabledModelConfig{
			ModelName:    name,
			Enabled:      enabled[name],
			DisplayOrder: i,
		}
		err := dbManager.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model_name"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			logger.WithError(err).WithField("model", name).Fatal("Failed to seed model config")
		}
	}
	logger.WithField("count", len(allNames)).Info("Seeded model configurations")
}

func seedSystemPrompt(dbManager *database.Manager, logger *logrus.Logger) {
	var count int64
	if err := dbManager.DB.Model(&models.SystemPromptConfig{}).Count(&count).Error; err != nil {
		logger.WithError(err).Fatal("Failed to count system prompts")
	}
	if count > 0 {
		logger.Info("System prompts already present, skipping")
		return
	}

	prompt := models.SystemPromptConfig{
		Name:        "default",
		Content:     defaultSystemPrompt,
		MaxTokens:   1024,
		Temperature: 0.7,
		IsActive:    true,
	}
	if err := dbManager.DB.Create(&prompt).Error; err != nil {
		logger.WithError(err).Fatal("Failed to seed default system prompt")
	}
	logger.Info("Seeded default system prompt")
}

func seedAdminRole(dbManager *database.Manager, logger *logrus.Logger) {
	userID := os.Getenv("ADMIN_USER_ID")
	token := os.Getenv("ADMIN_API_TOKEN")
	if userID == "" || token == "" {
		logger.Info("ADMIN_USER_ID / ADMIN_API_TOKEN not set, skipping admin seed")
		return
	}

	role := models.UserRole{
		UserID: userID,
		Token:  token,
		Role:   models.RoleAdmin,
	}
	err := dbManager.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "role"}),
	}).Create(&role).Error
	if err != nil {
		logger.WithError(err).Fatal("Failed to seed admin role")
	}
	logger.Info("Seeded admin role")
}
