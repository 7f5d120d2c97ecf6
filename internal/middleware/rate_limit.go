package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/mealplanner/backend/internal/service"
)

// RateRecord is the state of one key in its current window
type RateRecord struct {
	Key     string
	Count   int
	ResetAt time.Time
}

// RateStore keeps fixed-window counters. Increment must be atomic per key:
// it starts a new window with count 1 when none is active and otherwise
// adds one to the active window.
type RateStore interface {
	Get(ctx context.Context, key string) (RateRecord, bool, error)
	Increment(ctx context.Context, key string, window time.Duration) (RateRecord, error)
	Reset(ctx context.Context, key string) error
}

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for store keys
	KeyPrefix string
}

// RateLimitResult is the outcome of one check
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter handles fixed-window rate limiting on top of a RateStore
type RateLimiter struct {
	store  RateStore
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(store RateStore, config RateLimitConfig) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

func (rl *RateLimiter) key(k string) string {
	return rl.config.KeyPrefix + ":" + k
}

// Check counts one request for key and reports whether it is within the limit
func (rl *RateLimiter) Check(ctx context.Context, key string) (RateLimitResult, error) {
	rec, err := rl.store.Increment(ctx, rl.key(key), rl.config.Window)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := rl.config.Limit - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   rec.Count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: remaining,
		ResetAt:   rec.ResetAt,
	}, nil
}

// Remaining reports the quota left for key without counting a request
func (rl *RateLimiter) Remaining(ctx context.Context, key string) (int, time.Time, error) {
	rec, ok, err := rl.store.Get(ctx, rl.key(key))
	if err != nil {
		return 0, time.Time{}, err
	}
	if !ok {
		return rl.config.Limit, time.Time{}, nil
	}
	remaining := rl.config.Limit - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, rec.ResetAt, nil
}

// Reset clears the window of key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.store.Reset(ctx, rl.key(key))
}

// callerKey identifies the caller by authenticated user, falling back to the client address
func callerKey(c *gin.Context) string {
	if userID, ok := UserID(c); ok {
		return "user:" + userID.String()
	}
	return "ip:" + c.ClientIP()
}

// Middleware returns a Gin middleware that enforces the limit per caller.
// A failing store lets the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callerKey(c)
		res, err := rl.Check(c.Request.Context(), key)
		if err != nil {
			slog.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
			rateLimitDecisions.WithLabelValues("error").Inc()
			c.Next()
			return
		}

		if !res.Allowed {
			rateLimitDecisions.WithLabelValues("denied").Inc()
			slog.Info("Rate limit exceeded", "key", key, "limit", res.Limit, "reset_at", res.ResetAt)
			RespondError(c, &service.RateLimitError{Key: key, Limit: res.Limit, ResetAt: res.ResetAt})
			c.Abort()
			return
		}

		rateLimitDecisions.WithLabelValues("allowed").Inc()
		setRateLimitHeaders(c, res.Limit, res.Remaining, res.ResetAt)
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, limit, remaining int, resetAt time.Time) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}
