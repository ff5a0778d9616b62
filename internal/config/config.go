package config

import (
	"flag"
	"fmt"
	"log"
	"os"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	// Unfurl service (microlink-compatible page metadata API)
	UnfurlAPIURL string
	UnfurlAPIKey string

	// Google Places API key for map location lookups (optional)
	PlacesAPIKey string

	// Object storage for re-hosted cover images
	StorageURL    string
	StorageBucket string
	StorageToken  string

	// Headless browser screenshot fallback (optional, requires Chrome)
	EnableRenderer bool
}

func Load() *Config {
	config := &Config{
		Port:          getEnvWithDefault("PORT", "8080"),
		LogLevel:      getEnvWithDefault("LOG_LEVEL", "info"),
		UnfurlAPIURL:  getEnvWithDefault("UNFURL_API_URL", "https://api.microlink.io"),
		UnfurlAPIKey:  getEnvWithDefault("UNFURL_API_KEY", ""),
		PlacesAPIKey:  getEnvWithDefault("GOOGLE_PLACES_API_KEY", ""),
		StorageURL:    getEnvWithDefault("STORAGE_URL", ""),
		StorageBucket: getEnvWithDefault("STORAGE_BUCKET", "covers"),
		StorageToken:  getEnvWithDefault("STORAGE_TOKEN", ""),
	}

	// Required environment variables (for database/redis services)
	config.DatabaseURL = mustGetEnv("DATABASE_URL")
	config.RedisURL = mustGetEnv("REDIS_URL")

	config.EnableRenderer = os.Getenv("ENABLE_RENDERER") == "true"

	// Command line flags override environment
	flag.StringVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level")
	flag.Parse()

	return config
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

// ValidateForAPI ensures all required fields for the API service are present
func (c *Config) ValidateForAPI() error {
	// Database and Redis are already required by Load
	return nil
}

// ValidateForWorker ensures all required fields for the worker service are present
func (c *Config) ValidateForWorker() error {
	if c.StorageURL == "" {
		return fmt.Errorf("environment variable STORAGE_URL is required for worker service")
	}
	return nil
}
