package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/api"
	"github.com/user/listing-ingest/internal/config"
	"github.com/user/listing-ingest/internal/extract"
	"github.com/user/listing-ingest/internal/fetch"
	"github.com/user/listing-ingest/internal/ingest"
	"github.com/user/listing-ingest/internal/monitoring"
	"github.com/user/listing-ingest/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)
	objectStore, err := storage.NewMinioStore(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
	if err != nil {
		logger.Fatal("failed to connect to object storage", zap.Error(err))
	}

	metrics := monitoring.NewMetrics()

	// Initialize Extraction Pipeline
	fetcher := fetch.NewFetcher(time.Duration(cfg.FetchTimeout)*time.Second, logger)
	limiter := extract.NewRateLimiter(time.Duration(cfg.ModelIntervalMs) * time.Millisecond)
	selector := extract.NewPhotoSelector(
		cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel,
		limiter, cfg.ModelRetries, time.Duration(cfg.ModelRetryWaitMs)*time.Millisecond, logger)
	if selector == nil {
		logger.Info("AI photo selection disabled, no API key configured")
	}

	var picker extract.PhotoPicker
	if selector != nil {
		picker = selector
	}
	orchestrator := extract.NewOrchestrator(fetcher, picker, logger)
	ingestor := ingest.NewIngestor(fetcher, objectStore, time.Duration(cfg.IngestDelayMs)*time.Millisecond, logger)

	// Initialize API Server
	server := api.NewServer(cfg, orchestrator, ingestor, fetcher, pgStore, redisStore, objectStore, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
