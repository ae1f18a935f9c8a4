package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/twin-documents/internal/analyzer"
	"github.com/BerylCAtieno/twin-documents/internal/config"
	"github.com/BerylCAtieno/twin-documents/internal/db"
	"github.com/BerylCAtieno/twin-documents/internal/handlers"
	"github.com/BerylCAtieno/twin-documents/internal/metrics"
	"github.com/BerylCAtieno/twin-documents/internal/middleware"
	"github.com/BerylCAtieno/twin-documents/internal/repository"
	"github.com/BerylCAtieno/twin-documents/internal/router"
	"github.com/BerylCAtieno/twin-documents/internal/services"
	"github.com/BerylCAtieno/twin-documents/internal/storage"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

const serviceName = "twin-documents"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(serviceName, cfg.LogLevel)

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err, "path", cfg.DatabasePath)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Object storage
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	blobStore, err := storage.NewS3Storage(initCtx, cfg)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to initialize object storage", "error", err, "endpoint", cfg.S3Endpoint)
	}

	llm := analyzer.NewOpenRouterAnalyzer(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, logger)

	docRepo := repository.NewRepository(database)
	docService := services.NewService(docRepo, blobStore, llm, logger)

	// Setup HTTP router
	handler := router.NewRouter(docService, logger, router.Options{
		Handler: handlers.Options{
			MaxFileSize:        cfg.MaxFileSize,
			DefaultRowsPerPage: cfg.DefaultRowsPerPage,
			MaxRowsPerPage:     cfg.MaxRowsPerPage,
		},
		Metrics:   metrics.NewHTTPServerMetrics(serviceName),
		RateLimit: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
