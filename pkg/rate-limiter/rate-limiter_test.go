package ratelimiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis fails every command fast, leaving the in-memory buckets
// as the only state.
func unreachableRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewRateLimiter(t *testing.T) {
	_, err := NewRateLimiter(nil, 1, 1, time.Minute, zap.NewNop())
	assert.Error(t, err)

	_, err = NewRateLimiter(unreachableRedis(t), 1, 0, time.Minute, zap.NewNop())
	assert.Error(t, err)

	rl, err := NewRateLimiter(unreachableRedis(t), 1, 5, 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, rl.ttl)
}

func TestGetLimiter_ReusesBucketPerKey(t *testing.T) {
	rl, err := NewRateLimiter(unreachableRedis(t), 1, 3, time.Minute, zap.NewNop())
	require.NoError(t, err)

	first := rl.GetLimiter(context.Background(), "10.0.0.1")
	second := rl.GetLimiter(context.Background(), "10.0.0.1")
	other := rl.GetLimiter(context.Background(), "10.0.0.2")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 3, first.Burst())
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, err := NewRateLimiter(unreachableRedis(t), 0.001, 2, time.Minute, zap.NewNop())
	require.NoError(t, err)

	app := fiber.New()
	app.Use(rl.RateLimitMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	statuses := make([]int, 0, 3)
	for range 3 {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}
