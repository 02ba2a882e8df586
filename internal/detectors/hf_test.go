package detectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zombar/ghosted/internal/models"
)

func TestHFDetectLabelConventions(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantScore   float64
		wantVerdict string
	}{
		{
			name:        "openai fake label",
			body:        `[[{"label": "Fake", "score": 0.92}, {"label": "Real", "score": 0.08}]]`,
			wantScore:   0.92,
			wantVerdict: models.VerdictLikelyAI,
		},
		{
			name:        "openai real label first",
			body:        `[[{"label": "Real", "score": 0.9}, {"label": "Fake", "score": 0.1}]]`,
			wantScore:   0.1,
			wantVerdict: models.VerdictLikelyHuman,
		},
		{
			name:        "coai label_1",
			body:        `[[{"label": "LABEL_1", "score": 0.55}]]`,
			wantScore:   0.55,
			wantVerdict: models.VerdictUncertain,
		},
		{
			name:        "coai label_0",
			body:        `[[{"label": "LABEL_0", "score": 0.8}]]`,
			wantScore:   0.2,
			wantVerdict: models.VerdictLikelyHuman,
		},
		{
			name:        "un-nested response",
			body:        `[{"label": "Fake", "score": 0.75}]`,
			wantScore:   0.75,
			wantVerdict: models.VerdictLikelyAI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("authorization header = %q", got)
				}
				if !strings.HasSuffix(r.URL.Path, "/org/model") {
					t.Errorf("model id missing from path: %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			d := NewHFRoberta("hf_test", "Test Detector", "org/model", "tok", srv.URL)
			result := d.Detect(context.Background(), "some text to classify")

			if result.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %s, want %s", result.Verdict, tt.wantVerdict)
			}
			if result.AIScore == nil {
				t.Fatal("expected a score")
			}
			if diff := *result.AIScore - tt.wantScore; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ai_score = %v, want %v", *result.AIScore, tt.wantScore)
			}
		})
	}
}

func TestHFDetectTruncatesInput(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		gotLen = len([]rune(req["inputs"]))
		w.Write([]byte(`[[{"label": "Fake", "score": 0.5}]]`))
	}))
	defer srv.Close()

	d := NewHFRoberta("hf_test", "Test", "org/model", "tok", srv.URL)
	d.Detect(context.Background(), strings.Repeat("é", 2000))

	if gotLen != hfMaxChars {
		t.Errorf("input length = %d, want truncated to %d", gotLen, hfMaxChars)
	}
}

func TestHFDetectErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewHFRoberta("hf_test", "Test", "org/model", "tok", srv.URL)
	result := d.Detect(context.Background(), "text")
	if result.Verdict != models.VerdictError {
		t.Errorf("verdict = %s, want error", result.Verdict)
	}
}

func TestHFWithoutToken(t *testing.T) {
	d := NewHFRoberta("hf_test", "Test", "org/model", "", "")
	if d.Available() {
		t.Error("tokenless detector should be unavailable")
	}
	result := d.Detect(context.Background(), "text")
	if result.Verdict != models.VerdictError {
		t.Errorf("verdict = %s, want error", result.Verdict)
	}
}
