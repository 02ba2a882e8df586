// Package queue enqueues and processes asynchronous comparison jobs
// backed by Redis via asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeCompareText = "ghosted:compare_text"
)

// CompareTextPayload carries everything the worker needs to run one
// comparison without touching the API layer.
type CompareTextPayload struct {
	ComparisonID        string   `json:"comparison_id"`
	Text                string   `json:"text"`
	Detectors           []string `json:"detectors,omitempty"`
	NormalizeSmartChars bool     `json:"normalize_smart_chars"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	return &Client{
		client: asynq.NewClient(redisOpt),
	}
}

// EnqueueCompare enqueues a comparison job. The comparison id doubles as
// the asynq task id, so re-enqueueing the same comparison is a no-op.
func (c *Client) EnqueueCompare(ctx context.Context, comparisonID, text string, detectors []string, normalizeSmartChars bool) (string, error) {
	payload := CompareTextPayload{
		ComparisonID:        comparisonID,
		Text:                text,
		Detectors:           detectors,
		NormalizeSmartChars: normalizeSmartChars,
		EnqueuedAt:          time.Now().UnixNano(), // Record enqueue time for queue wait metrics
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeCompareText),
			attribute.String("comparison_id", comparisonID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeCompareText, payloadBytes, asynq.TaskID(comparisonID))

	opts := []asynq.Option{
		asynq.MaxRetry(5),                   // Detector upstreams flake; retry a few times
		asynq.Timeout(10 * time.Minute),     // Two full detection fan-outs per job
		asynq.Queue("comparisons"),          // Dedicated queue (highest priority)
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue compare task: %w", err)
	}

	return info.ID, nil
}

// Close closes the underlying Asynq client
func (c *Client) Close() error {
	return c.client.Close()
}
