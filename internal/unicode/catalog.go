// Package unicode contains the anomalous-character catalog and the scan
// and clean engines built on top of it.
package unicode

import (
	"fmt"

	"github.com/zombar/ghosted/internal/models"
)

// Record is one catalog entry. The catalog is a fixed table: names,
// categories and threat levels are static properties of the codepoint,
// never computed at scan time.
type Record struct {
	Codepoint   rune
	Name        string
	Category    string
	ThreatLevel string
	// Replacement is the ASCII equivalent for smart-punctuation entries.
	// Always a single character so normalization never changes text length.
	Replacement string
}

// catalog maps each known anomalous codepoint to its classification.
//
// Threat defaults per category: zero-width and bidi-control are high
// (strongest detector signals and display-integrity risks), homoglyphs
// medium, smart punctuation and legacy formatting low. The Mongolian
// vowel separator is raised to medium because it behaves like a
// zero-width space in modern rendering.
var catalog = map[rune]Record{
	// Zero-width characters, the classic tokenizer artifacts.
	0x200B: {0x200B, "ZERO WIDTH SPACE", models.CategoryZeroWidth, models.ThreatHigh, ""},
	0x200C: {0x200C, "ZERO WIDTH NON-JOINER", models.CategoryZeroWidth, models.ThreatHigh, ""},
	0x200D: {0x200D, "ZERO WIDTH JOINER", models.CategoryZeroWidth, models.ThreatHigh, ""},
	0x2060: {0x2060, "WORD JOINER", models.CategoryZeroWidth, models.ThreatHigh, ""},
	0xFEFF: {0xFEFF, "ZERO WIDTH NO-BREAK SPACE / BOM", models.CategoryZeroWidth, models.ThreatHigh, ""},

	// Bidirectional control characters.
	0x200E: {0x200E, "LEFT-TO-RIGHT MARK", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x200F: {0x200F, "RIGHT-TO-LEFT MARK", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x202A: {0x202A, "LEFT-TO-RIGHT EMBEDDING", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x202B: {0x202B, "RIGHT-TO-LEFT EMBEDDING", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x202C: {0x202C, "POP DIRECTIONAL FORMATTING", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x202D: {0x202D, "LEFT-TO-RIGHT OVERRIDE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x202E: {0x202E, "RIGHT-TO-LEFT OVERRIDE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x2066: {0x2066, "LEFT-TO-RIGHT ISOLATE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x2067: {0x2067, "RIGHT-TO-LEFT ISOLATE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x2068: {0x2068, "FIRST STRONG ISOLATE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x2069: {0x2069, "POP DIRECTIONAL ISOLATE", models.CategoryBidiControl, models.ThreatHigh, ""},
	0x061C: {0x061C, "ARABIC LETTER MARK", models.CategoryBidiControl, models.ThreatHigh, ""},

	// Unusual whitespace and legacy formatting.
	0x00AD: {0x00AD, "SOFT HYPHEN", models.CategoryFormatting, models.ThreatLow, ""},
	0x180E: {0x180E, "MONGOLIAN VOWEL SEPARATOR", models.CategoryFormatting, models.ThreatMedium, ""},
	0x2000: {0x2000, "EN QUAD", models.CategoryFormatting, models.ThreatLow, ""},
	0x2001: {0x2001, "EM QUAD", models.CategoryFormatting, models.ThreatLow, ""},
	0x2002: {0x2002, "EN SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2003: {0x2003, "EM SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2004: {0x2004, "THREE-PER-EM SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2005: {0x2005, "FOUR-PER-EM SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2006: {0x2006, "SIX-PER-EM SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2007: {0x2007, "FIGURE SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2008: {0x2008, "PUNCTUATION SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x2009: {0x2009, "THIN SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x200A: {0x200A, "HAIR SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x202F: {0x202F, "NARROW NO-BREAK SPACE", models.CategoryFormatting, models.ThreatLow, ""},
	0x206A: {0x206A, "INHIBIT SYMMETRIC SWAPPING", models.CategoryFormatting, models.ThreatLow, ""},
	0x206B: {0x206B, "ACTIVATE SYMMETRIC SWAPPING", models.CategoryFormatting, models.ThreatLow, ""},
	0x206C: {0x206C, "INHIBIT ARABIC FORM SHAPING", models.CategoryFormatting, models.ThreatLow, ""},
	0x206D: {0x206D, "ACTIVATE ARABIC FORM SHAPING", models.CategoryFormatting, models.ThreatLow, ""},
	0x206E: {0x206E, "NATIONAL DIGIT SHAPES", models.CategoryFormatting, models.ThreatLow, ""},
	0x206F: {0x206F, "NOMINAL DIGIT SHAPES", models.CategoryFormatting, models.ThreatLow, ""},
	0x2061: {0x2061, "FUNCTION APPLICATION", models.CategoryFormatting, models.ThreatLow, ""},
	0x2062: {0x2062, "INVISIBLE TIMES", models.CategoryFormatting, models.ThreatLow, ""},
	0x2063: {0x2063, "INVISIBLE SEPARATOR", models.CategoryFormatting, models.ThreatLow, ""},
	0x2064: {0x2064, "INVISIBLE PLUS", models.CategoryFormatting, models.ThreatLow, ""},
	0xFFF9: {0xFFF9, "INTERLINEAR ANNOTATION ANCHOR", models.CategoryFormatting, models.ThreatLow, ""},
	0xFFFA: {0xFFFA, "INTERLINEAR ANNOTATION SEPARATOR", models.CategoryFormatting, models.ThreatLow, ""},
	0xFFFB: {0xFFFB, "INTERLINEAR ANNOTATION TERMINATOR", models.CategoryFormatting, models.ThreatLow, ""},
	0x115F: {0x115F, "HANGUL CHOSEONG FILLER", models.CategoryFormatting, models.ThreatLow, ""},
	0x1160: {0x1160, "HANGUL JUNGSEONG FILLER", models.CategoryFormatting, models.ThreatLow, ""},
	0x17B4: {0x17B4, "KHMER VOWEL INHERENT AQ", models.CategoryFormatting, models.ThreatLow, ""},
	0x17B5: {0x17B5, "KHMER VOWEL INHERENT AA", models.CategoryFormatting, models.ThreatLow, ""},
	0x034F: {0x034F, "COMBINING GRAPHEME JOINER", models.CategoryFormatting, models.ThreatLow, ""},

	// Homoglyphs: Cyrillic and Greek letters indistinguishable from Latin.
	0x0430: {0x0430, "CYRILLIC SMALL LETTER A", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0435: {0x0435, "CYRILLIC SMALL LETTER IE", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x043E: {0x043E, "CYRILLIC SMALL LETTER O", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0440: {0x0440, "CYRILLIC SMALL LETTER ER", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0441: {0x0441, "CYRILLIC SMALL LETTER ES", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0443: {0x0443, "CYRILLIC SMALL LETTER U", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0445: {0x0445, "CYRILLIC SMALL LETTER HA", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0455: {0x0455, "CYRILLIC SMALL LETTER DZE", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0456: {0x0456, "CYRILLIC SMALL LETTER BYELORUSSIAN-UKRAINIAN I", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0458: {0x0458, "CYRILLIC SMALL LETTER JE", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0410: {0x0410, "CYRILLIC CAPITAL LETTER A", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0415: {0x0415, "CYRILLIC CAPITAL LETTER IE", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x041E: {0x041E, "CYRILLIC CAPITAL LETTER O", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0420: {0x0420, "CYRILLIC CAPITAL LETTER ER", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0421: {0x0421, "CYRILLIC CAPITAL LETTER ES", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0425: {0x0425, "CYRILLIC CAPITAL LETTER HA", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x03BF: {0x03BF, "GREEK SMALL LETTER OMICRON", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0391: {0x0391, "GREEK CAPITAL LETTER ALPHA", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0392: {0x0392, "GREEK CAPITAL LETTER BETA", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x0395: {0x0395, "GREEK CAPITAL LETTER EPSILON", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x039F: {0x039F, "GREEK CAPITAL LETTER OMICRON", models.CategoryHomoglyph, models.ThreatMedium, ""},
	0x03A1: {0x03A1, "GREEK CAPITAL LETTER RHO", models.CategoryHomoglyph, models.ThreatMedium, ""},

	// Smart punctuation, the visible AI tells.
	0x2018: {0x2018, "LEFT SINGLE QUOTATION MARK", models.CategorySmartPunct, models.ThreatLow, "'"},
	0x2019: {0x2019, "RIGHT SINGLE QUOTATION MARK", models.CategorySmartPunct, models.ThreatLow, "'"},
	0x201C: {0x201C, "LEFT DOUBLE QUOTATION MARK", models.CategorySmartPunct, models.ThreatLow, `"`},
	0x201D: {0x201D, "RIGHT DOUBLE QUOTATION MARK", models.CategorySmartPunct, models.ThreatLow, `"`},
	0x2013: {0x2013, "EN DASH", models.CategorySmartPunct, models.ThreatLow, "-"},
	0x2014: {0x2014, "EM DASH", models.CategorySmartPunct, models.ThreatLow, "-"},
	0x2026: {0x2026, "HORIZONTAL ELLIPSIS", models.CategorySmartPunct, models.ThreatLow, "."},
}

// Classify returns the catalog record for a rune, if any.
func Classify(r rune) (Record, bool) {
	rec, ok := catalog[r]
	return rec, ok
}

// Label formats a rune as its Unicode codepoint label, e.g. "U+200B".
func Label(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}

// CatalogSize reports the number of classified codepoints.
func CatalogSize() int {
	return len(catalog)
}
