package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database connection manager
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager opens the Postgres connection (mandatory) and the Redis
// connection (optional). A missing or unreachable Redis is logged and left
// nil: the rate limiter fails open and caching is skipped, but the service
// stays up.
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if config.LogLevel == "debug" {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &Manager{
		DB:     db,
		logger: logger,
	}

	manager.Redis = connectRedis(config.RedisURL, logger)

	logger.Info("Database connections established")
	return manager, nil
}

func connectRedis(redisURL string, logger *logrus.Logger) *redis.Client {
	if redisURL == "" {
		logger.Warn("Redis URL not configured, rate limiting will fail open")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid Redis URL, rate limiting will fail open")
		return nil
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 5

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, rate limiting will fail open")
		return nil
	}

	return client
}

// Migrate runs database migrations
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.Query{},
		&models.ProviderResponse{},
		&models.Rank{},
		&models.EnabledModelConfig{},
		&models.SystemPromptConfig{},
		&models.UserRole{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *Manager) PingRedis() error {
	if m.Redis == nil {
		return fmt.Errorf("redis not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Redis.Ping(ctx).Err()
}

// Cache implementation
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	AnalyticsSummaryKey = "analytics:summary"
)

// CacheAnalyticsSummary caches the admin analytics report
func (c *Cache) CacheAnalyticsSummary(ctx context.Context, summary interface{}, expiration time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics summary: %w", err)
	}

	return c.client.Set(ctx, AnalyticsSummaryKey, data, expiration).Err()
}

// GetCachedAnalyticsSummary retrieves the cached analytics report
func (c *Cache) GetCachedAnalyticsSummary(ctx context.Context, result interface{}) error {
	if c.client == nil {
		return redis.Nil
	}

	data, err := c.client.Get(ctx, AnalyticsSummaryKey).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// InvalidateAnalyticsSummary removes the cached analytics report
func (c *Cache) InvalidateAnalyticsSummary(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, AnalyticsSummaryKey).Err()
}
