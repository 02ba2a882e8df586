package unicode

import (
	"strings"
	"unicode/utf8"

	"github.com/zombar/ghosted/internal/models"
)

// Clean strips every cataloged codepoint outside the smart-punctuation
// category from text. With normalizeSmartChars set, smart punctuation is
// additionally rewritten to its one-character ASCII equivalent instead of
// being deleted, so normalization never removes visible content and never
// changes text length.
//
// CharsRemoved counts every character acted upon, deletions and
// normalizations alike; only deletions shrink the text. Cleaning already
// clean text is a no-op.
func Clean(text string, normalizeSmartChars bool) models.CleanResult {
	var b strings.Builder
	b.Grow(len(text))

	counts := map[rune]int{}
	var order []rune

	for _, r := range text {
		rec, ok := Classify(r)
		if !ok {
			b.WriteRune(r)
			continue
		}
		switch {
		case rec.Category != models.CategorySmartPunct:
			// Invisible set: always deleted.
			if counts[r] == 0 {
				order = append(order, r)
			}
			counts[r]++
		case normalizeSmartChars:
			b.WriteString(rec.Replacement)
			if counts[r] == 0 {
				order = append(order, r)
			}
			counts[r]++
		default:
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	removals := make([]models.Removal, 0, len(order))
	removed := 0
	for _, r := range order {
		rec, _ := Classify(r)
		removals = append(removals, models.Removal{
			Char:  Label(r),
			Name:  rec.Name,
			Count: counts[r],
		})
		removed += counts[r]
	}

	return models.CleanResult{
		CleanedText:    cleaned,
		OriginalLength: utf8.RuneCountInString(text),
		CleanedLength:  utf8.RuneCountInString(cleaned),
		CharsRemoved:   removed,
		Removals:       removals,
	}
}
