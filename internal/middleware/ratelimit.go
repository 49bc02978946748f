package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/artify/api/internal/metrics"
	"github.com/artify/api/pkg/response"
)

// RateLimiter is a fixed-window limiter on Redis. Without Redis, or while it
// is unreachable, a per-process token bucket takes over.
type RateLimiter struct {
	redis  *redis.Client
	local  *localLimiter
	logger zerolog.Logger
}

// NewRateLimiter accepts a nil client for in-process limiting only.
func NewRateLimiter(redisClient *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		local:  newLocalLimiter(5 * time.Minute),
		logger: logger,
	}
}

// Limit creates a rate limiting middleware keyed by user id, or client IP for anonymous callers.
func (rl *RateLimiter) Limit(scope string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if maxRequests <= 0 || c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		subject := GetUserID(c)
		if subject == "" {
			subject = "ip:" + c.IP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, subject)

		if rl.redis != nil {
			count, ttl, err := rl.incr(c.Context(), key, window)
			if err == nil {
				if count > int64(maxRequests) {
					metrics.RateLimitRejected.WithLabelValues(scope, "redis").Inc()
					c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(ttl.Seconds())))
					return response.RateLimited(c)
				}
				c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
				c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))
				return c.Next()
			}
			rl.logger.Warn().Err(err).Str("scope", scope).Msg("redis rate limit unavailable, using local limiter")
		}

		if !rl.local.allow(key, maxRequests, window) {
			metrics.RateLimitRejected.WithLabelValues(scope, "local").Inc()
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int((window/time.Duration(maxRequests)).Seconds())+1))
			return response.RateLimited(c)
		}
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		return c.Next()
	}
}

func (rl *RateLimiter) incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	// Set expiration on first request
	if count == 1 {
		rl.redis.Expire(ctx, key, window)
	}

	var ttl time.Duration
	if count > 1 {
		ttl, _ = rl.redis.TTL(ctx, key).Result()
	}
	if ttl <= 0 {
		ttl = window
	}
	return count, ttl, nil
}

// localLimiter keeps one token bucket per key: burst maxRequests, refilled
// evenly over the window.
type localLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	idleTimeout time.Duration
	lastCleanup time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(idleTimeout time.Duration) *localLimiter {
	return &localLimiter{
		buckets:     make(map[string]*bucket),
		idleTimeout: idleTimeout,
		lastCleanup: time.Now(),
	}
}

func (l *localLimiter) allow(key string, maxRequests int, window time.Duration) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) > l.idleTimeout {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.idleTimeout && now.Sub(b.lastSeen) > window {
				delete(l.buckets, k)
			}
		}
		l.lastCleanup = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(maxRequests)), maxRequests)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
