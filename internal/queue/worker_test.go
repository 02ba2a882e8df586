package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/ghosted/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	saved   map[string]*models.ComparisonResult
	failed  map[string]string
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:  map[string]*models.ComparisonResult{},
		failed: map[string]string{},
	}
}

func (s *fakeStore) SaveResult(id string, result *models.ComparisonResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[id] = result
	return nil
}

func (s *fakeStore) MarkFailed(id, lastError string) error {
	s.failed[id] = lastError
	return nil
}

type fakeEngine struct {
	lastText      string
	lastDetectors []string
	lastNormalize bool
	result        models.ComparisonResult
}

func (e *fakeEngine) Compare(_ context.Context, text string, detectorIDs []string, normalizeSmartChars bool) models.ComparisonResult {
	e.lastText = text
	e.lastDetectors = detectorIDs
	e.lastNormalize = normalizeSmartChars
	return e.result
}

func compareTask(t *testing.T, payload CompareTextPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeCompareText, data)
}

func TestHandleCompareText(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: models.ComparisonResult{
		Comparison: models.Comparison{CharsRemoved: 3, ReliabilityAssessment: "stable"},
	}}
	w := &Worker{store: store, engine: engine, logger: discardLogger()}

	task := compareTask(t, CompareTextPayload{
		ComparisonID:        "cmp-1",
		Text:                "he​llo",
		Detectors:           []string{"sapling"},
		NormalizeSmartChars: true,
		EnqueuedAt:          time.Now().UnixNano(),
	})

	require.NoError(t, w.HandleCompareText(context.Background(), task))

	assert.Equal(t, "he​llo", engine.lastText)
	assert.Equal(t, []string{"sapling"}, engine.lastDetectors)
	assert.True(t, engine.lastNormalize)

	require.Contains(t, store.saved, "cmp-1")
	assert.Equal(t, 3, store.saved["cmp-1"].Comparison.CharsRemoved)
}

func TestHandleCompareTextStoreFailureRetries(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	w := &Worker{store: store, engine: &fakeEngine{}, logger: discardLogger()}

	task := compareTask(t, CompareTextPayload{ComparisonID: "cmp-1", Text: "x"})

	err := w.HandleCompareText(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleCompareTextMalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{store: newFakeStore(), engine: &fakeEngine{}, logger: discardLogger()}

	task := asynq.NewTask(TypeCompareText, []byte("{not json"))

	err := w.HandleCompareText(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRetryDelaySchedule(t *testing.T) {
	task := asynq.NewTask(TypeCompareText, nil)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 1 * time.Minute},
		{2, 2 * time.Minute},
		{3, 5 * time.Minute},
		{4, 10 * time.Minute},
		{9, 10 * time.Minute}, // past the schedule, stays at the cap
	}
	for _, tt := range tests {
		got := retryDelay(tt.attempt, errors.New("boom"), task)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestCompareTextPayloadRoundTrip(t *testing.T) {
	payload := CompareTextPayload{
		ComparisonID:        "cmp-1",
		Text:                "body",
		Detectors:           []string{"a", "b"},
		NormalizeSmartChars: true,
		TraceID:             "abc123",
		EnqueuedAt:          42,
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded CompareTextPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload, decoded)
}
