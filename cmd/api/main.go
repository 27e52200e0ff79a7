package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/app"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db, cfg.DatabaseURL()); err != nil {
		appLog.Fatal("Failed to migrate database", "error", err)
	}

	// Redis is optional; without it tokens and rate limits live in process memory.
	var redisClient *redis.Client
	if cfg.RedisURL != "" || os.Getenv("REDIS_HOST") != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg, appLog)
		if err != nil {
			appLog.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisClient.Close()
	} else {
		appLog.Warn("Redis not configured, using in-memory token store and rate limiter")
	}

	images, err := app.NewImageStore(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize image store", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	application := app.New(app.Dependencies{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Images:   images,
		Registry: registry,
		Log:      appLog,
	})

	srv := server.New(cfg.Addr(), application.Engine, appLog)
	if err := srv.Run(ctx); err != nil {
		appLog.Fatal("Server error", "error", err)
	}
	appLog.Info("Server stopped")
}
