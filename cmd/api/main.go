package main

import (
	"log"

	"dropspot/internal/api"
	"dropspot/internal/cache"
	"dropspot/internal/config"
	"dropspot/internal/database"
	"dropspot/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	defer logger.Sync()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis (rate limiting)
	redis, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// Initialize API server
	server := api.New(cfg, logger, db, redis)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
