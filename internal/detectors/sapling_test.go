package detectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zombar/ghosted/internal/models"
)

func TestSaplingDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req saplingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Key != "test-key" {
			t.Errorf("api key not forwarded, got %q", req.Key)
		}
		if !req.SentScores {
			t.Error("sentence scores should be requested")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"score": 0.85,
			"sentence_scores": []map[string]any{
				{"sentence": "First sentence.", "score": 0.9},
				{"sentence": "Second sentence.", "score": 0.8},
			},
		})
	}))
	defer srv.Close()

	d := NewSapling("test-key", srv.URL, nil)
	result := d.Detect(context.Background(), "First sentence. Second sentence.")

	if result.Verdict != models.VerdictLikelyAI {
		t.Errorf("verdict = %s, want likely_ai", result.Verdict)
	}
	if result.AIScore == nil || *result.AIScore != 0.85 {
		t.Errorf("ai_score = %v, want 0.85", result.AIScore)
	}
	if result.HumanScore == nil || *result.HumanScore != 0.15 {
		t.Errorf("human_score = %v, want 0.15", result.HumanScore)
	}
	if len(result.SentenceScores) != 2 {
		t.Errorf("expected 2 sentence scores, got %d", len(result.SentenceScores))
	}
	if result.Method != MethodClassifier {
		t.Errorf("method = %s", result.Method)
	}
}

func TestSaplingDetectFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota", http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := NewSapling("key", srv.URL, nil)
			result := d.Detect(context.Background(), "text")
			if result.Verdict != models.VerdictError {
				t.Errorf("verdict = %s, want error", result.Verdict)
			}
			if result.Note == "" {
				t.Error("error result must explain the failure")
			}
			if result.AIScore != nil {
				t.Error("error result must not carry a score")
			}
		})
	}
}

func TestSaplingWithoutKey(t *testing.T) {
	d := NewSapling("", "", nil)
	if d.Available() {
		t.Error("detector without key should be unavailable")
	}
	result := d.Detect(context.Background(), "text")
	if result.Verdict != models.VerdictError {
		t.Errorf("verdict = %s, want error", result.Verdict)
	}
}

func TestSaplingQuotaExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"score": 0.5})
	}))
	defer srv.Close()

	quota := NewQuotaTracker(nil)
	quota.SetLimit("sapling", 10)
	quota.Spend("sapling", 10)

	d := NewSapling("key", srv.URL, quota)
	if d.Available() {
		t.Error("exhausted detector should report unavailable")
	}
	// Quota refusal is the registry's job; a direct call still goes
	// through so an admitted request is never double-checked.
	result := d.Detect(context.Background(), "text")
	if result.Verdict == models.VerdictError {
		t.Errorf("adapter should not gate on quota itself, got error: %q", result.Note)
	}
}
