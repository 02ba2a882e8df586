package detectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zombar/ghosted/internal/models"
)

// DefaultHFURL is the HuggingFace Inference API base URL.
const DefaultHFURL = "https://api-inference.huggingface.co/models"

// hfMaxChars is a conservative cap matching the 512-token window of the
// RoBERTa classifiers.
const hfMaxChars = 512

// HFRobertaDetector calls a RoBERTa-based classifier hosted on the
// HuggingFace Inference API. Different hosted models use different label
// conventions; extractAIScore normalizes them.
type HFRobertaDetector struct {
	id          string
	displayName string
	modelID     string
	token       string
	baseURL     string
	client      *http.Client
}

// NewHFRoberta creates a HuggingFace classifier adapter for one hosted
// model. baseURL falls back to the production Inference API when empty.
func NewHFRoberta(id, displayName, modelID, token, baseURL string) *HFRobertaDetector {
	if baseURL == "" {
		baseURL = DefaultHFURL
	}
	return &HFRobertaDetector{
		id:          id,
		displayName: displayName,
		modelID:     modelID,
		token:       token,
		baseURL:     baseURL,
		client:      &http.Client{},
	}
}

func (d *HFRobertaDetector) ID() string          { return d.id }
func (d *HFRobertaDetector) DisplayName() string { return d.displayName }
func (d *HFRobertaDetector) Method() string      { return MethodClassifier }
func (d *HFRobertaDetector) Role() Role          { return RoleFallback }
func (d *HFRobertaDetector) Available() bool     { return d.token != "" }

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (d *HFRobertaDetector) Detect(ctx context.Context, text string) models.DetectorResult {
	if d.token == "" {
		return errorResult(d, "no API token configured")
	}

	body, err := json.Marshal(map[string]string{"inputs": truncateRunes(text, hfMaxChars)})
	if err != nil {
		return errorResult(d, fmt.Sprintf("failed to encode request: %v", err))
	}

	url := fmt.Sprintf("%s/%s", d.baseURL, d.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errorResult(d, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errorResult(d, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(d, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	// The API answers [[{"label": ..., "score": ...}, ...]] for a single
	// input; tolerate the un-nested form too.
	var nested [][]hfLabel
	var flat []hfLabel
	raw := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return errorResult(d, fmt.Sprintf("malformed response: %v", err))
	}
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		flat = nested[0]
	} else if err := json.Unmarshal(raw, &flat); err != nil {
		return errorResult(d, fmt.Sprintf("unrecognized response shape: %v", err))
	}

	aiScore, ok := extractAIScore(flat)
	if !ok {
		return errorResult(d, "response carried no usable classification labels")
	}

	note := fmt.Sprintf("Open-source classifier (%s). Analyzes the first %d characters.", d.modelID, hfMaxChars)
	return scoredResult(d, aiScore, note, nil)
}

// extractAIScore maps model-specific label conventions onto an AI
// probability: openai-community uses Fake/Real, coai uses
// LABEL_1/LABEL_0.
func extractAIScore(labels []hfLabel) (float64, bool) {
	for _, l := range labels {
		label := strings.ToUpper(l.Label)
		switch {
		case label == "FAKE", label == "LABEL_1":
			return l.Score, true
		case label == "REAL", label == "LABEL_0":
			return 1 - l.Score, true
		case strings.Contains(label, "AI"), strings.Contains(label, "GENERATED"):
			return l.Score, true
		}
	}
	if len(labels) > 0 {
		return labels[0].Score, true
	}
	return 0, false
}
