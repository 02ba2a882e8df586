package unicode

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanRemovesZeroWidth(t *testing.T) {
	text := strings.Repeat("a", 250) + "​" + strings.Repeat("b", 250) + "​"

	result := Clean(text, false)

	if result.OriginalLength != 502 {
		t.Errorf("original_length = %d, want 502", result.OriginalLength)
	}
	if result.CleanedLength != 500 {
		t.Errorf("cleaned_length = %d, want 500", result.CleanedLength)
	}
	if result.CharsRemoved != 2 {
		t.Errorf("chars_removed = %d, want 2", result.CharsRemoved)
	}
	if len(result.Removals) != 1 {
		t.Fatalf("expected one removal entry, got %d", len(result.Removals))
	}
	r := result.Removals[0]
	if r.Char != "U+200B" || r.Name != "ZERO WIDTH SPACE" || r.Count != 2 {
		t.Errorf("unexpected removal entry: %+v", r)
	}
	if strings.ContainsRune(result.CleanedText, '​') {
		t.Error("cleaned text still contains zero width space")
	}
}

func TestCleanLengthLaw(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no anomalies", "perfectly ordinary text"},
		{"zero width", "a​b‌c"},
		{"bidi", "abc‮def‬"},
		{"homoglyph", "pаypаl"},
		{"mixed", "a​­а—z"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.text, false)
			if result.CleanedLength != result.OriginalLength-result.CharsRemoved {
				t.Errorf("length law violated: cleaned=%d original=%d removed=%d",
					result.CleanedLength, result.OriginalLength, result.CharsRemoved)
			}
		})
	}
}

func TestCleanIdempotence(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		normalize bool
	}{
		{"invisible only", "a​b‮c­d", false},
		{"with smart chars kept", "It’s — fine", false},
		{"with normalization", "It’s — fine​", true},
		{"all categories", "​‮а­…", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Clean(tt.text, tt.normalize)
			second := Clean(first.CleanedText, tt.normalize)
			if second.CharsRemoved != 0 {
				t.Errorf("second clean removed %d chars, want 0", second.CharsRemoved)
			}
			if second.CleanedText != first.CleanedText {
				t.Error("second clean altered already-clean text")
			}
		})
	}
}

func TestCleanNormalizesSmartChars(t *testing.T) {
	text := "“Hello” – it’s fine…"

	result := Clean(text, true)

	want := `"Hello" - it's fine.`
	if result.CleanedText != want {
		t.Errorf("cleaned text = %q, want %q", result.CleanedText, want)
	}
	// Normalization rewrites characters 1:1, so length is unchanged.
	if result.CleanedLength != result.OriginalLength {
		t.Errorf("normalization changed length: %d -> %d", result.OriginalLength, result.CleanedLength)
	}
	if result.CharsRemoved != 5 {
		t.Errorf("chars_removed = %d, want 5 normalized chars counted", result.CharsRemoved)
	}
}

func TestCleanKeepsSmartCharsByDefault(t *testing.T) {
	text := "It’s — fine"
	result := Clean(text, false)
	if result.CleanedText != text {
		t.Errorf("smart chars should be untouched without normalization: %q", result.CleanedText)
	}
	if result.CharsRemoved != 0 {
		t.Errorf("chars_removed = %d, want 0", result.CharsRemoved)
	}
}

func TestCleanNeverTouchesUncatalogedRunes(t *testing.T) {
	text := "héllo wörld ÆØÅ 日本語 emoji 🎉 done"
	result := Clean(text, true)
	if result.CleanedText != text {
		t.Errorf("clean modified text outside the catalog: %q", result.CleanedText)
	}
	if result.CharsRemoved != 0 || len(result.Removals) != 0 {
		t.Errorf("unexpected removals: %+v", result.Removals)
	}
}

func TestCleanRemovalOrderIsFirstOccurrence(t *testing.T) {
	text := "‮x​x‮x​"
	result := Clean(text, false)
	if len(result.Removals) != 2 {
		t.Fatalf("expected two removal entries, got %d", len(result.Removals))
	}
	if result.Removals[0].Char != "U+202E" || result.Removals[1].Char != "U+200B" {
		t.Errorf("removals not in first-occurrence order: %+v", result.Removals)
	}
}

func TestCleanLengthsCountCharacters(t *testing.T) {
	text := "日本​語"
	result := Clean(text, false)
	if result.OriginalLength != 4 {
		t.Errorf("original_length = %d, want 4 runes", result.OriginalLength)
	}
	if result.CleanedLength != utf8.RuneCountInString(result.CleanedText) {
		t.Errorf("cleaned_length disagrees with rune count")
	}
}
