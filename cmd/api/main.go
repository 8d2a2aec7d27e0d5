package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"resumeforge/internal/ai"
	"resumeforge/internal/analytics"
	"resumeforge/internal/api"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/database"
	"resumeforge/internal/scraper"
	"resumeforge/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("api bootstrapping",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(
		&database.User{},
		&database.Profile{},
		&database.Resume{},
		&database.JobScrape{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database migrated")

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("connect redis: %v", err)
	}
	cancel()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	if status := config.CheckLLM(cfg.LLM); !status.OK {
		logger.Warn("llm is not configured, suggestions will be unavailable",
			slog.String("reason", status.Reason),
		)
	}
	if status := config.CheckAnalytics(cfg.Analytics); !status.OK {
		logger.Warn("analytics is not configured, events will be dropped",
			slog.String("reason", status.Reason),
		)
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.Deps{
		Config:      cfg,
		DB:          db,
		Redis:       redisClient,
		AuthService: authService,
		Scraper:     scraper.New(cfg.Scraper),
		AI:          ai.NewClient(cfg.LLM),
		Analytics:   analytics.NewClient(cfg.Analytics, logger),
		Storage:     storageClient,
		Logger:      logger,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
