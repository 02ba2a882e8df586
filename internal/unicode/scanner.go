package unicode

import (
	"sort"

	"github.com/zombar/ghosted/internal/models"
)

// maxPositions caps the number of offsets reported per finding so that
// responses stay bounded on pathological inputs. Count always reflects
// every occurrence.
const maxPositions = 50

var threatOrder = map[string]int{
	models.ThreatHigh:   0,
	models.ThreatMedium: 1,
	models.ThreatLow:    2,
}

type occurrence struct {
	rec       Record
	count     int
	positions []int
	first     int
}

// Scan inspects text for anomalous codepoints in a single left-to-right
// pass. Offsets are 0-based character positions, not byte positions.
//
// Smart punctuation is reported separately in SmartChars unless
// includeSmartChars is set, in which case it is folded into the main
// findings and counted in categories and the invisible total. Scan is a
// pure function of its arguments.
func Scan(text string, includeSmartChars bool) models.ScanResult {
	seen := map[rune]*occurrence{}
	var order []rune

	charCount := 0
	for _, r := range text {
		i := charCount
		charCount++
		rec, ok := Classify(r)
		if !ok {
			continue
		}
		occ := seen[r]
		if occ == nil {
			occ = &occurrence{rec: rec, first: i}
			seen[r] = occ
			order = append(order, r)
		}
		occ.count++
		if len(occ.positions) < maxPositions {
			occ.positions = append(occ.positions, i)
		}
	}

	var findings, smartChars []models.Finding
	for _, r := range order {
		occ := seen[r]
		f := models.Finding{
			Char:        Label(r),
			Name:        occ.rec.Name,
			Category:    occ.rec.Category,
			ThreatLevel: occ.rec.ThreatLevel,
			Count:       occ.count,
			Positions:   occ.positions,
		}
		if occ.rec.Category == models.CategorySmartPunct && !includeSmartChars {
			smartChars = append(smartChars, f)
		} else {
			findings = append(findings, f)
		}
	}

	sortFindings(findings)
	sortFindings(smartChars)

	categories := map[string]int{}
	total := 0
	for _, f := range findings {
		categories[f.Category] += f.Count
		total += f.Count
	}

	return models.ScanResult{
		HasInvisibleChars:   total > 0,
		TotalInvisibleCount: total,
		CharCount:           charCount,
		Categories:          categories,
		Findings:            findings,
		SmartChars:          smartChars,
		Context:             buildContext(categories, total),
	}
}

// sortFindings orders by threat level (high first), then by descending
// count, then by codepoint label so identical inputs always produce
// identical output.
func sortFindings(fs []models.Finding) {
	sort.Slice(fs, func(i, j int) bool {
		ti, tj := threatOrder[fs[i].ThreatLevel], threatOrder[fs[j].ThreatLevel]
		if ti != tj {
			return ti < tj
		}
		if fs[i].Count != fs[j].Count {
			return fs[i].Count > fs[j].Count
		}
		return fs[i].Char < fs[j].Char
	})
}

// buildContext derives the likely source of the anomalies. The mapping is
// a fixed decision table over category counts: zero-width characters
// dominating point at tokenizer artifacts, any bidi controls at a bidi
// attack, pure homoglyph content at an encoding mismatch.
func buildContext(categories map[string]int, total int) models.ScanContext {
	zw := categories[models.CategoryZeroWidth]
	bidi := categories[models.CategoryBidiControl]
	homo := categories[models.CategoryHomoglyph]

	switch {
	case total == 0:
		return models.ScanContext{
			LikelySource: "none",
			Explanation:  "No invisible characters detected. Your text is clean.",
		}
	case zw > 0 && zw*2 > total:
		return models.ScanContext{
			LikelySource: "tokenizer_artifact",
			Explanation: "Zero-width characters found. These are commonly inserted by AI language model " +
				"tokenizers and are invisible to the naked eye. AI detection tools may use these as " +
				"signals, potentially causing false positives.",
		}
	case bidi > 0:
		return models.ScanContext{
			LikelySource: "bidi_attack",
			Explanation: "Bidirectional control characters found. These can silently reorder how text is " +
				"displayed and are a known vector for disguising content; they also appear when copying " +
				"text that includes right-to-left language material.",
		}
	case homo == total:
		return models.ScanContext{
			LikelySource: "encoding_mismatch",
			Explanation: "Homoglyph letters found. These render identically to Latin letters but are " +
				"different code points, usually introduced by conversion between encodings or by " +
				"deliberate character substitution.",
		}
	default:
		return models.ScanContext{
			LikelySource: "unknown",
			Explanation: "Unusual whitespace or formatting characters found. These may come from " +
				"copy-pasting from formatted documents, web pages, or specific text editors.",
		}
	}
}
