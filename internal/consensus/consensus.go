// Package consensus aggregates independent detector results into a
// single summary verdict.
package consensus

import (
	"github.com/zombar/ghosted/internal/models"
)

// Disclaimer accompanies every summary. Detection is probabilistic and
// must never be presented as proof of authorship.
const Disclaimer = "AI detection is probabilistic, not definitive. No detector is reliable enough " +
	"to make accusations of academic dishonesty. These results show what automated " +
	"tools see - they are not proof of anything. This tool is for educational and " +
	"transparency purposes only."

// Summarize reduces detector results to a consensus. Error verdicts are
// excluded from all scoring. The consensus is the verdict with the most
// votes; a tie is broken by the average AI score, favoring likely_ai
// when the scores lean that way and uncertain otherwise. The agreement
// ratio is the fraction of non-error results matching the consensus and
// is 0 when nothing scoreable remains.
func Summarize(results []models.DetectorResult) models.Summary {
	votes := map[string]int{}
	var scored int
	var scoreSum float64

	for _, r := range results {
		if r.Verdict == models.VerdictError {
			continue
		}
		votes[r.Verdict]++
		if r.AIScore != nil {
			scoreSum += *r.AIScore
			scored++
		}
	}

	total := votes[models.VerdictLikelyAI] + votes[models.VerdictLikelyHuman] + votes[models.VerdictUncertain]
	if total == 0 {
		return models.Summary{
			Consensus:      models.VerdictUncertain,
			AgreementRatio: 0,
			AverageAIScore: 0,
			Disclaimer:     Disclaimer,
		}
	}

	avg := 0.0
	if scored > 0 {
		avg = scoreSum / float64(scored)
	}

	consensus := winner(votes, avg)

	return models.Summary{
		Consensus:      consensus,
		AgreementRatio: float64(votes[consensus]) / float64(total),
		AverageAIScore: avg,
		Disclaimer:     Disclaimer,
	}
}

// winner picks the verdict with the most votes. Iteration is over a
// fixed verdict order so the result is deterministic; ties fall through
// to the average-score rule.
func winner(votes map[string]int, avg float64) string {
	order := []string{models.VerdictLikelyAI, models.VerdictLikelyHuman, models.VerdictUncertain}

	best := 0
	for _, v := range order {
		if votes[v] > best {
			best = votes[v]
		}
	}

	var tied []string
	for _, v := range order {
		if votes[v] == best {
			tied = append(tied, v)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	// Tie-break: a high average AI score resolves in favor of likely_ai
	// when it is among the tied verdicts; anything else is uncertain.
	if avg > 0.5 {
		for _, v := range tied {
			if v == models.VerdictLikelyAI {
				return v
			}
		}
	}
	return models.VerdictUncertain
}
