package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formflow/internal/config"
	"formflow/internal/database"
	"formflow/internal/logging"
	"formflow/internal/ratelimit"
	"formflow/internal/server"
	"formflow/internal/session"
	"formflow/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	deps := server.Deps{
		DB:                 db,
		Log:                log,
		JWTSecret:          cfg.JWTSecret,
		JWTExpiry:          cfg.JWTExpiry,
		Location:           cfg.Location,
		ProtectAdminRoutes: cfg.ProtectAdminRoutes,
	}

	// --- RabbitMQ (optional) ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, events disabled")
		} else {
			defer mqClient.Close()
			log.WithField("queue", mqClient.Queue()).Info("Publishing form events to RabbitMQ")
			deps.Publisher = mqClient
			if err := mqClient.ConsumeEvents(rabbitmq.LogEventHandler(log)); err != nil {
				log.WithError(err).Warn("Failed to start RabbitMQ consumer")
			}
		}
	}

	// --- Redis (optional) ---
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis ping failed; rate limits fail closed until it recovers")
		}
		cancel()

		deps.Revoker = session.NewRedisRevocationStore(rdb)
		if l, err := ratelimit.NewFixedWindowLimiter(rdb, "formflow:ratelimit:submit", cfg.SubmitRateLimitPerMinute, time.Minute); err != nil {
			log.WithError(err).Warn("Submission rate limit disabled")
		} else {
			log.WithField("perMinute", l.Limit()).Info("Submission rate limit enabled")
			deps.SubmitLimiter = l
		}
		if l, err := ratelimit.NewFixedWindowLimiter(rdb, "formflow:ratelimit:auth", cfg.AuthRateLimitPerMinute, time.Minute); err != nil {
			log.WithError(err).Warn("Auth rate limit disabled")
		} else {
			log.WithField("perMinute", l.Limit()).Info("Auth rate limit enabled")
			deps.AuthLimiter = l
		}
	}

	if cfg.SeedDemo {
		seedForms(context.Background(), db, log)
	}

	app := server.New(deps)

	// --- Start HTTP Server ---
	log.Infof("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}

	log.Info("Server gracefully stopped")
}
