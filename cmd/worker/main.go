package main

import (
	"database/sql"
	"fmt"
	"os"

	"stacks/internal/config"
	"stacks/internal/pkg/logger"
	"stacks/internal/repository/postgres"
	"stacks/internal/repository/redis"
	"stacks/internal/service/worker"
	"stacks/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate worker-specific configuration
	if err := cfg.ValidateForWorker(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting worker service...")

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
	queueRepo := redis.NewQueueRepository(redisClient, log)

	// Create cover image storage
	store := storage.NewClient(cfg.StorageURL, cfg.StorageBucket, cfg.StorageToken, log)

	// Create and run worker service; Start blocks until interrupt
	workerService := worker.New(cfg, log, itemRepo, queueRepo, store)
	if err := workerService.Start(); err != nil {
		log.Error("Worker service failed", "error", err)
		os.Exit(1)
	}

	log.Info("Worker service shutdown complete")
}
