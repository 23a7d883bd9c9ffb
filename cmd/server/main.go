package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/symptom-checker-api/internal/api"
	"github.com/symptom-checker-api/internal/config"
	"github.com/symptom-checker-api/internal/domain"
	"github.com/symptom-checker-api/internal/history"
	"github.com/symptom-checker-api/internal/service"
	"github.com/symptom-checker-api/pkg/llm"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	// Select the history store: MongoDB when configured, embedded SQLite
	// otherwise
	store, err := newStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize history store")
	}

	// Select the completion cache: Redis when configured, in-process LRU
	// otherwise
	cache := newCache(cfg.Cache, logger)

	model := llm.NewResilientClient(llm.NewClient(cfg.Model, logger), cache, logger)

	analysis := service.NewAnalysisService(model, store, cfg.Analysis, logger)
	historySvc := service.NewHistoryService(store, cfg.Analysis, logger)

	server := api.NewServer(cfg, analysis, historySvc, store, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting symptom checker API")

	serveErr := server.Start(ctx)
	if serveErr != nil {
		logger.WithError(serveErr).Error("Server failed")
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := store.Close(closeCtx); err != nil {
		logger.WithError(err).Warn("Failed to close history store")
	}

	if serveErr != nil {
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	return logger
}

func newStore(cfg *domain.Config, logger *logrus.Logger) (history.Store, error) {
	if cfg.MongoDB.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return history.NewMongoStore(ctx, cfg.MongoDB, logger)
	}
	logger.WithField("path", cfg.SQLite.Path).Info("MongoDB not configured, using embedded SQLite store")
	return history.NewSQLiteStore(cfg.SQLite.Path, logger)
}

func newCache(cfg domain.CacheConfig, logger *logrus.Logger) llm.CompletionCache {
	if cfg.RedisURL != "" {
		cache, err := llm.NewRedisCache(cfg)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, falling back to in-process cache")
		} else {
			return cache
		}
	}

	cache, err := llm.NewLRUCache(cfg.MaxItems, cfg.DefaultTTL)
	if err != nil {
		logger.WithError(err).Warn("Completion cache disabled")
		return nil
	}
	return cache
}
