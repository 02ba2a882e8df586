package detectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zombar/ghosted/internal/models"
)

// DefaultSaplingURL is the production Sapling AI detection endpoint.
const DefaultSaplingURL = "https://api.sapling.ai/api/v1/aidetect"

// SaplingDetector is the primary classifier. It is the only adapter with
// sentence-level scores and the only one under a daily character quota.
type SaplingDetector struct {
	apiKey  string
	baseURL string
	quota   *QuotaTracker
	client  *http.Client
}

// NewSapling creates a Sapling adapter. baseURL falls back to the
// production endpoint when empty.
func NewSapling(apiKey, baseURL string, quota *QuotaTracker) *SaplingDetector {
	if baseURL == "" {
		baseURL = DefaultSaplingURL
	}
	return &SaplingDetector{
		apiKey:  apiKey,
		baseURL: baseURL,
		quota:   quota,
		client:  &http.Client{},
	}
}

func (d *SaplingDetector) ID() string          { return "sapling" }
func (d *SaplingDetector) DisplayName() string { return "Sapling AI Detector" }
func (d *SaplingDetector) Method() string      { return MethodClassifier }
func (d *SaplingDetector) Role() Role          { return RolePrimary }

// Available reports false when the API key is missing or today's
// character budget is spent.
func (d *SaplingDetector) Available() bool {
	if d.apiKey == "" {
		return false
	}
	if d.quota != nil && d.quota.Exhausted(d.ID()) {
		return false
	}
	return true
}

type saplingRequest struct {
	Key        string `json:"key"`
	Text       string `json:"text"`
	SentScores bool   `json:"sent_scores"`
}

type saplingResponse struct {
	Score          float64 `json:"score"`
	SentenceScores []struct {
		Sentence string  `json:"sentence"`
		Score    float64 `json:"score"`
	} `json:"sentence_scores"`
}

func (d *SaplingDetector) Detect(ctx context.Context, text string) models.DetectorResult {
	if d.apiKey == "" {
		return errorResult(d, "no API key configured")
	}

	body, err := json.Marshal(saplingRequest{Key: d.apiKey, Text: text, SentScores: true})
	if err != nil {
		return errorResult(d, fmt.Sprintf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(body))
	if err != nil {
		return errorResult(d, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errorResult(d, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(d, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var parsed saplingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorResult(d, fmt.Sprintf("malformed response: %v", err))
	}

	var sentences []models.SentenceScore
	for _, s := range parsed.SentenceScores {
		sentences = append(sentences, models.SentenceScore{Sentence: s.Sentence, Score: s.Score})
	}

	return scoredResult(d, parsed.Score,
		"Primary detector. Trained on GPT-5, Claude 4.5, Gemini 2.5, DeepSeek-V3.", sentences)
}
