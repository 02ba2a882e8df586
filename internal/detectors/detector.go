// Package detectors defines the detector capability interface, the
// concrete remote-classifier adapters, and the registry that fans
// detection out across them.
package detectors

import (
	"context"

	"github.com/zombar/ghosted/internal/models"
)

// Role describes a detector's place in the routing table. Exactly one
// detector per family is primary; the rest provide fallback coverage.
// Fallbacks are always invoked, they just label themselves as backup
// coverage when the primary is unavailable.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFallback Role = "fallback"
)

// Detection methods.
const (
	MethodClassifier  = "classifier"
	MethodLLMAnalysis = "llm_analysis"
)

// Detector is the capability interface implemented by every remote
// classifier adapter. Detect never panics and never reports a Go error:
// any failure (quota, network, malformed response) becomes a result with
// verdict "error" and an explanatory note.
type Detector interface {
	ID() string
	DisplayName() string
	Method() string
	Role() Role

	// Available reflects current quota/auth/health state. An unavailable
	// detector is still invoked and self-reports through Detect.
	Available() bool

	Detect(ctx context.Context, text string) models.DetectorResult
}

// verdictFromScore maps an AI probability onto a categorical verdict.
func verdictFromScore(aiScore float64) string {
	switch {
	case aiScore >= 0.7:
		return models.VerdictLikelyAI
	case aiScore <= 0.3:
		return models.VerdictLikelyHuman
	default:
		return models.VerdictUncertain
	}
}

// scoredResult builds a successful DetectorResult from an AI score,
// clamped into [0,1].
func scoredResult(d Detector, aiScore float64, note string, sentences []models.SentenceScore) models.DetectorResult {
	if aiScore < 0 {
		aiScore = 0
	}
	if aiScore > 1 {
		aiScore = 1
	}
	humanScore := 1 - aiScore
	return models.DetectorResult{
		Detector:       d.ID(),
		DetectorName:   d.DisplayName(),
		Verdict:        verdictFromScore(aiScore),
		AIScore:        &aiScore,
		HumanScore:     &humanScore,
		Method:         d.Method(),
		Note:           note,
		SentenceScores: sentences,
	}
}

// errorResult builds a failure DetectorResult. Scores are absent.
func errorResult(d Detector, note string) models.DetectorResult {
	return models.DetectorResult{
		Detector:     d.ID(),
		DetectorName: d.DisplayName(),
		Verdict:      models.VerdictError,
		Method:       d.Method(),
		Note:         note,
	}
}

// truncateRunes limits text to n characters without splitting a rune.
func truncateRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
