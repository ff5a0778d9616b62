package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stacks/internal/config"
	internalhttp "stacks/internal/http"
	"stacks/internal/pkg/logger"
	"stacks/internal/repository/postgres"
	"stacks/internal/repository/redis"
	"stacks/internal/scrape"
	"stacks/internal/service/api"
	"stacks/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate API-specific configuration
	if err := cfg.ValidateForAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting API service...")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	// Run database migrations
	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Create repositories
	itemRepo := postgres.NewItemRepository(db, log)
	listRepo := postgres.NewListRepository(db, log)
	tokenRepo := postgres.NewTokenRepository(db, log)
	queueRepo := redis.NewQueueRepository(redisClient, log)

	// Create the scraping pipeline
	unfurl := scrape.NewUnfurlClient(cfg.UnfurlAPIURL, cfg.UnfurlAPIKey, log)
	var renderer *scrape.Renderer
	if cfg.EnableRenderer {
		renderer = scrape.NewRenderer(log)
		defer renderer.Close()
	}
	scraper := scrape.NewScraper(unfurl, cfg.PlacesAPIKey, renderer, log)

	// Create cover image storage
	store := storage.NewClient(cfg.StorageURL, cfg.StorageBucket, cfg.StorageToken, log)

	// Wire routes and create API service
	router := internalhttp.NewRouter(log, scraper, itemRepo, listRepo, tokenRepo, queueRepo, store)
	apiService := api.New(cfg, log, router.SetupRoutes())

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	// Start API service in a goroutine
	go func() {
		defer close(done)
		if err := apiService.Start(); err != nil {
			log.Error("API service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for either shutdown signal or service completion
	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping API service...")
	case <-done:
		log.Info("API service completed")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop API service
	if err := apiService.Stop(ctx); err != nil {
		log.Error("Error stopping API service", "error", err)
	}

	log.Info("API service shutdown complete")
}
