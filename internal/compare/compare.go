// Package compare orchestrates the before/after experiment: scan, clean,
// detect on both versions of the text, and diff the verdicts.
package compare

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/zombar/ghosted/internal/consensus"
	"github.com/zombar/ghosted/internal/models"
	"github.com/zombar/ghosted/internal/unicode"
)

// Reliability assessments for a comparison.
const (
	ReliabilityBytePattern = "byte_pattern_dependent"
	ReliabilityStable      = "stable"
)

// deltaNoticeable is the average absolute score shift worth calling out
// in the insight even when no verdict flipped.
const deltaNoticeable = 0.05

// DetectionRunner is the slice of the registry the engine depends on.
type DetectionRunner interface {
	DetectAll(ctx context.Context, text string, requestedIDs []string) []models.DetectorResult
}

// Engine runs comparisons. It owns no state beyond its collaborators and
// is safe for concurrent use.
type Engine struct {
	registry DetectionRunner
}

// NewEngine creates a comparison engine on top of a detection runner.
func NewEngine(registry DetectionRunner) *Engine {
	return &Engine{registry: registry}
}

// Compare scans text, cleans it, runs detection on the original and the
// cleaned version concurrently, and reports how cleaning shifted each
// detector. Every step is individually fault tolerant: detector
// failures degrade to error results and still yield a full comparison.
func (e *Engine) Compare(ctx context.Context, text string, detectorIDs []string, normalizeSmartChars bool) models.ComparisonResult {
	scan := unicode.Scan(text, true)
	clean := unicode.Clean(text, normalizeSmartChars)

	var origResults, cleanResults []models.DetectorResult
	var g errgroup.Group
	g.Go(func() error {
		origResults = e.registry.DetectAll(ctx, text, detectorIDs)
		return nil
	})
	g.Go(func() error {
		cleanResults = e.registry.DetectAll(ctx, clean.CleanedText, detectorIDs)
		return nil
	})
	g.Wait()

	changed, deltas := diff(origResults, cleanResults)
	insight, reliability := buildInsight(clean.CharsRemoved, changed, deltas)

	return models.ComparisonResult{
		Scan: scan,
		OriginalDetection: models.DetectionReport{
			Results: origResults,
			Summary: consensus.Summarize(origResults),
		},
		CleanedDetection: models.DetectionReport{
			Results: cleanResults,
			Summary: consensus.Summarize(cleanResults),
		},
		Comparison: models.Comparison{
			CharsRemoved:                clean.CharsRemoved,
			DetectorsThatChangedVerdict: changed,
			ScoreDeltas:                 deltas,
			Insight:                     insight,
			ReliabilityAssessment:       reliability,
		},
		Disclaimer: consensus.Disclaimer,
	}
}

// diff pairs results by detector id across the two passes. A detector
// contributes a score delta and a potential verdict change only when
// both of its passes succeeded.
func diff(original, cleaned []models.DetectorResult) ([]models.VerdictChange, []models.ScoreDelta) {
	cleanedByID := map[string]models.DetectorResult{}
	for _, r := range cleaned {
		if r.Verdict != models.VerdictError {
			cleanedByID[r.Detector] = r
		}
	}

	changed := []models.VerdictChange{}
	deltas := []models.ScoreDelta{}

	for _, orig := range original {
		if orig.Verdict == models.VerdictError || orig.AIScore == nil {
			continue
		}
		after, ok := cleanedByID[orig.Detector]
		if !ok || after.AIScore == nil {
			continue
		}

		delta := *after.AIScore - *orig.AIScore
		deltas = append(deltas, models.ScoreDelta{Detector: orig.Detector, Delta: round4(delta)})

		if orig.Verdict != after.Verdict {
			changed = append(changed, models.VerdictChange{
				Detector:      orig.Detector,
				BeforeVerdict: orig.Verdict,
				AfterVerdict:  after.Verdict,
				BeforeAIScore: round4(*orig.AIScore),
				AfterAIScore:  round4(*after.AIScore),
				ScoreDelta:    round4(delta),
			})
		}
	}

	return changed, deltas
}

// buildInsight renders the templated one-paragraph interpretation and
// classifies the comparison's reliability. Verdict flips after nothing
// but invisible-character removal mark the detectors as byte-pattern
// dependent; otherwise the result is stable.
func buildInsight(charsRemoved int, changed []models.VerdictChange, deltas []models.ScoreDelta) (string, string) {
	if charsRemoved == 0 {
		return "No invisible characters were found, so original and cleaned results are identical.",
			ReliabilityStable
	}
	if len(deltas) == 0 {
		return fmt.Sprintf("Removed %s, but no detectors completed both passes for comparison.",
			pluralChars(charsRemoved)), ReliabilityStable
	}

	var avgAbs float64
	for _, d := range deltas {
		avgAbs += math.Abs(d.Delta)
	}
	avgAbs /= float64(len(deltas))

	head := fmt.Sprintf("Removed %s.", pluralChars(charsRemoved))

	if len(changed) > 0 {
		verb := "this detector relies"
		if len(changed) > 1 {
			verb = "these detectors rely"
		}
		return fmt.Sprintf("%s %d of %d detectors changed verdict after cleaning. This suggests %s partly on invisible byte patterns rather than content analysis.",
			head, len(changed), len(deltas), verb), ReliabilityBytePattern
	}

	if avgAbs > deltaNoticeable {
		return fmt.Sprintf("%s While no detectors changed their overall verdict, scores shifted by %.0f%% on average. Invisible characters had a measurable effect.",
			head, avgAbs*100), ReliabilityStable
	}

	return head + " Detection scores remained stable after removing invisible characters. " +
		"These detectors appear to analyze content rather than byte patterns.", ReliabilityStable
}

func pluralChars(n int) string {
	if n == 1 {
		return "1 invisible character"
	}
	return fmt.Sprintf("%d invisible characters", n)
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
