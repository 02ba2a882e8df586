package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/zombar/ghosted/internal/models"
)

// Comparer runs a full before/after comparison.
type Comparer interface {
	Compare(ctx context.Context, text string, detectorIDs []string, normalizeSmartChars bool) models.ComparisonResult
}

// Store persists comparison outcomes.
type Store interface {
	SaveResult(id string, result *models.ComparisonResult) error
	MarkFailed(id, lastError string) error
}

// Worker wraps the Asynq server for processing comparison tasks
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	store       Store
	engine      Comparer
	concurrency int
	logger      *slog.Logger
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker
func NewWorker(cfg WorkerConfig, store Store, engine Comparer) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	serverCfg := asynq.Config{
		Concurrency: cfg.Concurrency,

		// Single queue today; named so more can be added without
		// re-routing existing tasks.
		Queues: map[string]int{
			"comparisons": 7,
		},
		StrictPriority: false,

		// Detector upstreams rate limit and flake, so back off hard:
		// 30s, 1m, 2m, 5m, 10m.
		RetryDelayFunc: retryDelay,

		ShutdownTimeout: 30 * time.Second,

		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			slog.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)

			// On the last attempt, record the terminal failure so poll
			// clients stop waiting on a job that will never complete.
			if retried >= maxRetry && task.Type() == TypeCompareText {
				var payload CompareTextPayload
				if jsonErr := json.Unmarshal(task.Payload(), &payload); jsonErr != nil {
					return
				}
				if dbErr := store.MarkFailed(payload.ComparisonID, err.Error()); dbErr != nil {
					slog.Error("failed to mark comparison failed",
						"comparison_id", payload.ComparisonID,
						"error", dbErr,
					)
				}
			}
		}),
	}

	server := asynq.NewServer(redisOpt, serverCfg)
	mux := asynq.NewServeMux()

	w := &Worker{
		server:      server,
		mux:         mux,
		store:       store,
		engine:      engine,
		concurrency: cfg.Concurrency,
		logger:      slog.Default(),
	}

	mux.HandleFunc(TypeCompareText, w.HandleCompareText)

	return w
}

func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	delays := []time.Duration{
		30 * time.Second,
		1 * time.Minute,
		2 * time.Minute,
		5 * time.Minute,
		10 * time.Minute,
	}
	if n < len(delays) {
		return delays[n]
	}
	return delays[len(delays)-1]
}

// HandleCompareText runs one queued comparison and stores the result.
// Returning an error hands the task back to asynq for retry.
func (w *Worker) HandleCompareText(ctx context.Context, task *asynq.Task) error {
	var payload CompareTextPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads never succeed; drop instead of retrying.
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	if payload.EnqueuedAt > 0 {
		wait := time.Since(time.Unix(0, payload.EnqueuedAt))
		w.logger.Info("processing comparison task",
			"comparison_id", payload.ComparisonID,
			"queue_wait", wait.String(),
			"trace_id", payload.TraceID,
		)
	}

	result := w.engine.Compare(ctx, payload.Text, payload.Detectors, payload.NormalizeSmartChars)

	if err := w.store.SaveResult(payload.ComparisonID, &result); err != nil {
		return fmt.Errorf("failed to store comparison %s: %w", payload.ComparisonID, err)
	}

	w.logger.Info("comparison task complete",
		"comparison_id", payload.ComparisonID,
		"duration", time.Since(start).String(),
		"chars_removed", result.Comparison.CharsRemoved,
		"verdict_changes", len(result.Comparison.DetectorsThatChangedVerdict),
	)

	return nil
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker", "concurrency", w.concurrency)

	// Run is blocking - starts processing tasks
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}
