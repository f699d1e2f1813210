// Package ratelimit applies a fixed-window per-client rate limit to the
// upload endpoint, backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter creates a fixed-window limiter allowing limit requests per
// window for each key.
func NewRedisLimiter(addr, password string, db int, limit int, window time.Duration) Limiter {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &redisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Allow increments the window counter for key and reports whether the client
// is still under the limit. The first hit in a window sets the expiry.
func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := fmt.Sprintf("ratelimit:upload:%s", key)

	n, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, bucket, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return n <= l.limit, nil
}

// Middleware enforces the limiter per client IP. Limiter errors fail open:
// a broken Redis must not take uploads down with it.
func Middleware(l Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				"client_ip", c.ClientIP(),
				"error", err)
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many uploads",
			})
			return
		}

		c.Next()
	}
}
