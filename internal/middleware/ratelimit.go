// backend/internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/nexus-edu/nexus/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// FailOpenLimit is the sentinel limit reported when the counter store is
// unconfigured or unreachable. A broken limiter must never become an outage
// cause, so such requests are always allowed.
const FailOpenLimit = 999

// CounterStore is the atomic increment-with-expiry primitive behind the
// sliding window. The limiter never reads-then-writes the counter itself.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// RedisCounterStore backs the limiter with Redis INCR + EXPIRE
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return count, ttl, nil
}

// CheckResult reports one rate-limit decision
type CheckResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter gates the aggregation endpoint with a sliding window per caller
type RateLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	logger *logrus.Logger
}

// NewRateLimiter creates a rate limiter. A nil store means "unconfigured":
// every check passes with the fail-open sentinel limit.
func NewRateLimiter(store CounterStore, limit int, window time.Duration, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Check records a hit for the identifier and reports whether it is allowed
func (rl *RateLimiter) Check(ctx context.Context, identifier string) CheckResult {
	if rl.store == nil {
		return rl.failOpen()
	}

	count, ttl, err := rl.store.Incr(ctx, "ratelimit:generate:"+identifier, rl.window)
	if err != nil {
		rl.logger.WithError(err).Warn("Rate limit counter store unreachable, failing open")
		return rl.failOpen()
	}

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return CheckResult{
		Allowed:   int(count) <= rl.limit,
		Limit:     rl.limit,
		Remaining: remaining,
		Reset:     time.Now().Add(ttl),
	}
}

func (rl *RateLimiter) failOpen() CheckResult {
	return CheckResult{
		Allowed:   true,
		Limit:     FailOpenLimit,
		Remaining: FailOpenLimit,
		Reset:     time.Now().Add(rl.window),
	}
}

// RateLimit middleware function
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := CallerIdentity(c)
		result := rl.Check(c.Request.Context(), identifier)

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.Reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// CallerIdentity prefers the authenticated user header and falls back to the
// client network address.
func CallerIdentity(c *gin.Context) string {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID
	}
	return c.ClientIP()
}

// Security middleware
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRandomID(8)
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
