package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fazamuttaqien/credit-engine/config"
	mysqldb "github.com/fazamuttaqien/credit-engine/infra/mysql"
	redisdb "github.com/fazamuttaqien/credit-engine/infra/redis"
	"github.com/fazamuttaqien/credit-engine/internal/model"
	ratelimiter "github.com/fazamuttaqien/credit-engine/pkg/rate-limiter"
	"github.com/fazamuttaqien/credit-engine/pkg/telemetry"
	"github.com/fazamuttaqien/credit-engine/presenter"
	"github.com/fazamuttaqien/credit-engine/router"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	slog.Info("Starting application setup...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using system environment variables", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	var tel *telemetry.OpenTelemetry
	if cfg.OTEL_ENABLED {
		tel, err = telemetry.New(ctx, cfg)
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
		}
	} else {
		tel = telemetry.NewLocal(cfg)
	}
	log := tel.Log

	db, err := mysqldb.ConnectWithRetry(ctx, cfg, 5, 3*time.Second)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	redisClient, err := redisdb.Connect(ctx, cfg, 2*time.Second)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	go redisdb.Watch(ctx, redisClient, 30*time.Second)

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		log.Info("Closing MySQL connection...")
		if err := mysqldb.Close(db); err != nil {
			log.Error("Error disconnecting from MySQL", zap.Error(err))
		}

		log.Info("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Error("Error disconnecting from Redis", zap.Error(err))
		}

		log.Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error during monitoring shutdown", "error", err)
		}
	}()

	if err := model.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migration completed", zap.Any("stats", mysqldb.Stats(db)))

	limiter, err := ratelimiter.NewRateLimiter(redisClient, cfg.RATE_LIMIT_RPS, cfg.RATE_LIMIT_BURST, 15*time.Minute, log)
	if err != nil {
		log.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	p := presenter.NewPresenter(db, redisClient, cfg, tel)

	if summary, err := p.Importer.Run(ctx); err != nil {
		log.Warn("Initial workbook import skipped", zap.Error(err))
	} else {
		log.Info("Initial workbook import completed",
			zap.Int("customers", summary.Customers),
			zap.Int("loans", summary.Loans),
		)
	}

	if cfg.IMPORT_SCHEDULE != "" {
		scheduler, err := p.Importer.Schedule(cfg.IMPORT_SCHEDULE)
		if err != nil {
			log.Fatal("Failed to schedule workbook import", zap.Error(err))
		}
		defer func() {
			<-scheduler.Stop().Done()
		}()
	}

	app := router.NewRouter(p, db, tel, cfg, limiter)

	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.SERVER_PORT
		log.Info("Server starting", zap.String("address", addr))
		listenErr <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-listenErr:
		if err != nil {
			log.Error("Server listen error", zap.Error(err))
			return
		}
	}

	log.Info("Starting graceful shutdown...")
	if err := app.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			log.Error("Server shutdown error", zap.Error(err))
		}
	} else {
		log.Info("Server gracefully stopped.")
	}

	log.Info("Application shutdown complete.")
}
