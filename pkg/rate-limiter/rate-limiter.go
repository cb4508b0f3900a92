package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix    = "ratelimit:"
	redisTimeout = 500 * time.Millisecond
)

// RateLimiter keeps a token bucket per client in memory and mirrors each
// bucket's burst into redis, so a restarted instance does not hand a noisy
// client a fresh full burst.
type RateLimiter struct {
	client   redis.Cmdable
	log      *zap.Logger
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(client redis.Cmdable, rps float64, burst int, ttl time.Duration, log *zap.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if burst <= 0 {
		return nil, errors.New("rate limiter burst must be positive")
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
		log.Warn("Invalid TTL provided to NewRateLimiter, defaulting", zap.Duration("default_ttl", ttl))
	}

	return &RateLimiter{
		client:   client,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
	}, nil
}

func (rl *RateLimiter) GetLimiter(ctx context.Context, key string) *rate.Limiter {
	rl.mu.Lock()
	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.restoredBurst(ctx, key))
		rl.limiters[key] = limiter

		time.AfterFunc(rl.ttl, func() {
			rl.mu.Lock()
			defer rl.mu.Unlock()
			rl.log.Debug("Removing limiter from memory due to TTL", zap.String("key", key))
			delete(rl.limiters, key)
		})
	}
	rl.mu.Unlock()

	go rl.persist(key, limiter.Burst())

	return limiter
}

// restoredBurst must be called with rl.mu held.
func (rl *RateLimiter) restoredBurst(ctx context.Context, key string) int {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := rl.client.Get(ctx, keyPrefix+key).Int()
	switch {
	case err == nil && val > 0 && val <= rl.burst:
		rl.log.Debug("Initializing limiter from Redis state",
			zap.String("key", key),
			zap.Int("initial_burst", val),
		)
		return val
	case err != nil && !errors.Is(err, redis.Nil):
		rl.log.Error("Error getting rate limit state from Redis", zap.String("key", key), zap.Error(err))
	}
	return rl.burst
}

func (rl *RateLimiter) persist(key string, burst int) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := rl.client.Set(ctx, keyPrefix+key, burst, rl.ttl).Err(); err != nil {
		rl.log.Error("Error setting rate limit state to Redis", zap.String("key", key), zap.Error(err))
	}
}

func (rl *RateLimiter) RateLimitMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if key == "" {
			rl.log.Warn("Rate limiter cannot determine client IP address")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access Forbidden: Cannot identify client.",
			})
		}

		if !rl.GetLimiter(c.UserContext(), key).Allow() {
			rl.log.Warn("Rate limit exceeded", zap.String("ip", key))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}

		return c.Next()
	}
}
