package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refresh-agent/refresh-api/internal/cache"
	"github.com/refresh-agent/refresh-api/internal/config"
	"github.com/refresh-agent/refresh-api/internal/db"
	"github.com/refresh-agent/refresh-api/internal/router"
	"github.com/refresh-agent/refresh-api/internal/services"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize the analysis cache unless disabled
	var cacheStore *cache.Store
	if !cfg.CacheDisabled {
		database, err := db.NewSQLiteDB(cfg.CacheDBPath)
		if err != nil {
			logger.Fatal("Failed to open cache database", "error", err)
		}
		defer database.Close()

		if err := db.RunMigrations(cfg.CacheDBPath); err != nil {
			logger.Fatal("Failed to run migrations", "error", err)
		}

		cacheStore = cache.NewStore(database, cfg.CacheTTLHours, logger)
	}

	// Initialize refresh service
	refreshService := services.NewService(cfg, cacheStore, logger)

	// Setup HTTP router
	handler := router.NewRouter(refreshService, logger)

	// Create HTTP server. Write timeout covers the slowest LLM round trip.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
