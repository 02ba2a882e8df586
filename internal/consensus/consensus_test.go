package consensus

import (
	"math"
	"testing"

	"github.com/zombar/ghosted/internal/models"
)

func result(id, verdict string, aiScore float64) models.DetectorResult {
	human := 1 - aiScore
	return models.DetectorResult{
		Detector:   id,
		Verdict:    verdict,
		AIScore:    &aiScore,
		HumanScore: &human,
	}
}

func errResult(id string) models.DetectorResult {
	return models.DetectorResult{Detector: id, Verdict: models.VerdictError, Note: "boom"}
}

func TestSummarizeMajority(t *testing.T) {
	results := []models.DetectorResult{
		result("a", models.VerdictLikelyHuman, 0.1),
		result("b", models.VerdictLikelyHuman, 0.2),
		result("c", models.VerdictLikelyAI, 0.9),
	}

	s := Summarize(results)

	if s.Consensus != models.VerdictLikelyHuman {
		t.Errorf("consensus = %s, want likely_human", s.Consensus)
	}
	if math.Abs(s.AgreementRatio-2.0/3.0) > 1e-9 {
		t.Errorf("agreement_ratio = %v, want 2/3", s.AgreementRatio)
	}
	if math.Abs(s.AverageAIScore-0.4) > 1e-9 {
		t.Errorf("average_ai_score = %v, want 0.4", s.AverageAIScore)
	}
	if s.Disclaimer == "" {
		t.Error("disclaimer must always be present")
	}
}

func TestSummarizeExcludesErrors(t *testing.T) {
	results := []models.DetectorResult{
		result("a", models.VerdictLikelyAI, 0.9),
		errResult("b"),
		errResult("c"),
	}

	s := Summarize(results)

	if s.Consensus != models.VerdictLikelyAI {
		t.Errorf("consensus = %s, want likely_ai", s.Consensus)
	}
	if s.AgreementRatio != 1 {
		t.Errorf("agreement_ratio = %v, want 1 (single non-error result)", s.AgreementRatio)
	}
	if math.Abs(s.AverageAIScore-0.9) > 1e-9 {
		t.Errorf("average_ai_score = %v, want 0.9", s.AverageAIScore)
	}
}

func TestSummarizeAllErrors(t *testing.T) {
	s := Summarize([]models.DetectorResult{errResult("a"), errResult("b")})

	if s.Consensus != models.VerdictUncertain {
		t.Errorf("consensus = %s, want uncertain", s.Consensus)
	}
	if s.AgreementRatio != 0 {
		t.Errorf("agreement_ratio = %v, want 0", s.AgreementRatio)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Consensus != models.VerdictUncertain || s.AgreementRatio != 0 {
		t.Errorf("empty input should be uncertain with ratio 0, got %+v", s)
	}
}

func TestSummarizeTieBreak(t *testing.T) {
	tests := []struct {
		name    string
		results []models.DetectorResult
		want    string
	}{
		{
			name: "tie leaning ai",
			results: []models.DetectorResult{
				result("a", models.VerdictLikelyAI, 0.95),
				result("b", models.VerdictLikelyHuman, 0.25),
			},
			want: models.VerdictLikelyAI,
		},
		{
			name: "tie leaning human",
			results: []models.DetectorResult{
				result("a", models.VerdictLikelyAI, 0.7),
				result("b", models.VerdictLikelyHuman, 0.05),
			},
			want: models.VerdictUncertain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.results)
			if s.Consensus != tt.want {
				t.Errorf("consensus = %s, want %s", s.Consensus, tt.want)
			}
		})
	}
}

func TestAgreementRatioBounds(t *testing.T) {
	tests := []struct {
		name    string
		results []models.DetectorResult
	}{
		{"unanimous", []models.DetectorResult{
			result("a", models.VerdictLikelyAI, 0.8),
			result("b", models.VerdictLikelyAI, 0.9),
		}},
		{"split", []models.DetectorResult{
			result("a", models.VerdictLikelyAI, 0.8),
			result("b", models.VerdictLikelyHuman, 0.1),
			result("c", models.VerdictUncertain, 0.5),
		}},
		{"with errors", []models.DetectorResult{
			result("a", models.VerdictUncertain, 0.5),
			errResult("b"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.results)
			if s.AgreementRatio < 0 || s.AgreementRatio > 1 {
				t.Errorf("agreement_ratio %v out of [0,1]", s.AgreementRatio)
			}
		})
	}
}

func TestUnanimousAgreementIsOne(t *testing.T) {
	s := Summarize([]models.DetectorResult{
		result("a", models.VerdictLikelyHuman, 0.1),
		result("b", models.VerdictLikelyHuman, 0.2),
		result("c", models.VerdictLikelyHuman, 0.15),
	})
	if s.AgreementRatio != 1 {
		t.Errorf("agreement_ratio = %v, want 1", s.AgreementRatio)
	}
}
