package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zombar/ghosted/internal/api"
	"github.com/zombar/ghosted/internal/compare"
	"github.com/zombar/ghosted/internal/config"
	"github.com/zombar/ghosted/internal/database"
	"github.com/zombar/ghosted/internal/detectors"
	"github.com/zombar/ghosted/internal/experiment"
	"github.com/zombar/ghosted/internal/queue"
	"github.com/zombar/ghosted/pkg/logging"
	"github.com/zombar/ghosted/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("ghosted service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("ghosted")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	var (
		configPath = flag.String("config", getEnv("CONFIG_PATH", "ghosted.yaml"), "Config file path (env: CONFIG_PATH)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "config_path", *configPath)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Build the detector registry
	quota := detectors.NewQuotaTracker(nil)
	registry := detectors.NewRegistry(time.Duration(cfg.DetectTimeout), quota, logger)

	if cfg.SaplingAPIKey != "" {
		quota.SetLimit("sapling", cfg.SaplingDailyQuota)
		registry.Register(detectors.NewSapling(cfg.SaplingAPIKey, cfg.SaplingURL, quota))
		logger.Info("sapling detector registered", "daily_quota", cfg.SaplingDailyQuota)
	} else {
		logger.Warn("SAPLING_API_KEY not set, primary detector unavailable")
		registry.Register(detectors.NewSapling("", cfg.SaplingURL, quota))
	}

	registry.Register(detectors.NewHFRoberta(
		"hf_roberta_coai", "RoBERTa AI Detector (CoAI)",
		"coai/roberta-ai-detector-v2", cfg.HFToken, cfg.HFURL))
	registry.Register(detectors.NewHFRoberta(
		"hf_roberta_openai", "RoBERTa Base OpenAI Detector",
		"openai-community/roberta-base-openai-detector", cfg.HFToken, cfg.HFURL))

	if cfg.UseOllama {
		stylistic, err := detectors.NewOllamaStylistic(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			logger.Warn("failed to initialize Ollama stylistic judge", "error", err, "ollama_url", cfg.OllamaURL)
		} else {
			registry.Register(stylistic)
		}
		structural, err := detectors.NewOllamaStructural(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			logger.Warn("failed to initialize Ollama structural judge", "error", err, "ollama_url", cfg.OllamaURL)
		} else {
			registry.Register(structural)
		}
		logger.Info("ollama judges configured", "model", cfg.OllamaModel, "url", cfg.OllamaURL)
	} else {
		logger.Info("ollama disabled, running with classifier detectors only")
	}

	engine := compare.NewEngine(registry)
	experiments := experiment.New(cfg.ExperimentResultsPath)

	// Optional async queue: enabled when Redis is configured
	var queueClient *queue.Client
	var worker *queue.Worker
	var enqueuer api.Enqueuer
	if cfg.RedisAddr != "" {
		queueClient = queue.NewClient(queue.ClientConfig{RedisAddr: cfg.RedisAddr})
		defer queueClient.Close()
		enqueuer = queueClient

		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:   cfg.RedisAddr,
			Concurrency: 2,
		}, db, engine)
		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker stopped", "error", err)
			}
		}()
		logger.Info("async queue enabled", "redis_addr", cfg.RedisAddr)
	} else {
		logger.Info("REDIS_ADDR not set, async comparisons disabled")
	}

	// Initialize API handler
	apiHandler := api.NewHandler(db, registry, engine, enqueuer, experiments, api.Config{
		MaxScanChars:   cfg.MaxScanChars,
		MaxDetectChars: cfg.MaxDetectChars,
		CORSOrigins:    cfg.CORSOrigins,
	})

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("ghosted")(apiHandler),
	)

	// Create server with extended timeouts for LLM-backed detection
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("ghosted service starting",
			"port", cfg.Port,
			"database", cfg.DBPath,
			"detectors", len(registry.Detectors()),
			"queue_enabled", cfg.RedisAddr != "",
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if worker != nil {
		worker.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
