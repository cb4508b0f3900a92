package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/credit-engine/config"
)

func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.REDIS_ADDRESS,
		Password:     cfg.REDIS_PASSWORD,
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		MaxRetries:   3,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.REDIS_ADDRESS, err)
	}
	zap.L().Info("Connected to Redis", zap.String("address", cfg.REDIS_ADDRESS))

	return client, nil
}

// Connect keeps retrying until Redis answers or ctx is cancelled.
func Connect(ctx context.Context, cfg *config.Config, retryDelay time.Duration) (*redis.Client, error) {
	for {
		client, err := NewRedis(ctx, cfg)
		if err == nil {
			return client, nil
		}

		zap.L().Error("Failed to connect to Redis, retrying",
			zap.Duration("retry_in", retryDelay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// Watch pings the client periodically and logs when Redis stops answering.
// go-redis reconnects pooled connections on its own, so the client is never
// replaced. Watch returns when ctx is cancelled.
func Watch(ctx context.Context, client *redis.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		switch {
		case err != nil && healthy:
			zap.L().Warn("Redis stopped answering pings", zap.Error(err))
			healthy = false
		case err == nil && !healthy:
			zap.L().Info("Redis is reachable again")
			healthy = true
		}
	}
}
