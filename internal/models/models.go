package models

import "time"

// Character categories used by the catalog and scanner.
const (
	CategoryZeroWidth   = "zero-width"
	CategoryBidiControl = "bidi-control"
	CategoryHomoglyph   = "homoglyph"
	CategorySmartPunct  = "smart-punctuation"
	CategoryFormatting  = "other-formatting"
)

// Threat levels assigned to catalog entries.
const (
	ThreatHigh   = "high"
	ThreatMedium = "medium"
	ThreatLow    = "low"
)

// Detector verdicts.
const (
	VerdictLikelyHuman = "likely_human"
	VerdictLikelyAI    = "likely_ai"
	VerdictUncertain   = "uncertain"
	VerdictError       = "error"
)

// Finding describes every occurrence of one anomalous codepoint in a text.
type Finding struct {
	Char        string `json:"char"` // "U+200B"
	Name        string `json:"name"` // "ZERO WIDTH SPACE"
	Category    string `json:"category"`
	ThreatLevel string `json:"threat_level"`
	Count       int    `json:"count"`
	Positions   []int  `json:"positions"` // 0-based character offsets, capped
}

// ScanContext carries the scanner's deterministic interpretation of a result.
type ScanContext struct {
	Explanation  string `json:"explanation"`
	LikelySource string `json:"likely_source"`
}

// ScanResult is the full report for a single scan pass.
type ScanResult struct {
	HasInvisibleChars   bool           `json:"has_invisible_chars"`
	TotalInvisibleCount int            `json:"total_invisible_count"`
	CharCount           int            `json:"char_count"`
	Categories          map[string]int `json:"categories"`
	Findings            []Finding      `json:"findings"`
	SmartChars          []Finding      `json:"smart_chars,omitempty"`
	Context             ScanContext    `json:"context"`
}

// Removal records one codepoint acted on by the cleaner.
type Removal struct {
	Char  string `json:"char"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CleanResult is the outcome of a clean pass.
type CleanResult struct {
	CleanedText    string    `json:"cleaned_text"`
	OriginalLength int       `json:"original_length"`
	CleanedLength  int       `json:"cleaned_length"`
	CharsRemoved   int       `json:"chars_removed"`
	Removals       []Removal `json:"removals"`
}

// SentenceScore is a per-sentence AI probability from detectors that
// support segment-level scoring.
type SentenceScore struct {
	Sentence string  `json:"sentence"`
	Score    float64 `json:"score"`
}

// DetectorResult is one detector's judgment of one text. Scores are nil
// when the detector failed (verdict "error").
type DetectorResult struct {
	Detector       string          `json:"detector"`
	DetectorName   string          `json:"detector_name"`
	Verdict        string          `json:"verdict"`
	AIScore        *float64        `json:"ai_score,omitempty"`
	HumanScore     *float64        `json:"human_score,omitempty"`
	Method         string          `json:"method"` // "classifier" | "llm_analysis"
	Note           string          `json:"note"`
	SentenceScores []SentenceScore `json:"sentence_scores,omitempty"`
}

// Summary aggregates a set of detector results into a consensus.
type Summary struct {
	Consensus      string  `json:"consensus"`
	AgreementRatio float64 `json:"agreement_ratio"`
	AverageAIScore float64 `json:"average_ai_score"`
	Disclaimer     string  `json:"disclaimer"`
}

// DetectionReport is the payload of a detect pass: raw results plus summary.
type DetectionReport struct {
	Results []DetectorResult `json:"results"`
	Summary Summary          `json:"summary"`
}

// VerdictChange records a detector flipping its verdict between the
// original and cleaned passes.
type VerdictChange struct {
	Detector      string  `json:"detector"`
	BeforeVerdict string  `json:"before_verdict"`
	AfterVerdict  string  `json:"after_verdict"`
	BeforeAIScore float64 `json:"before_ai_score"`
	AfterAIScore  float64 `json:"after_ai_score"`
	ScoreDelta    float64 `json:"score_delta"`
}

// ScoreDelta is the cleaned-minus-original score shift for one detector.
type ScoreDelta struct {
	Detector string  `json:"detector"`
	Delta    float64 `json:"delta"`
}

// Comparison is the diff section of a ComparisonResult.
type Comparison struct {
	CharsRemoved                int             `json:"chars_removed"`
	DetectorsThatChangedVerdict []VerdictChange `json:"detectors_that_changed_verdict"`
	ScoreDeltas                 []ScoreDelta    `json:"score_deltas"`
	Insight                     string          `json:"insight"`
	ReliabilityAssessment       string          `json:"reliability_assessment"` // "byte_pattern_dependent" | "stable"
}

// ComparisonResult is the top-level before/after report.
type ComparisonResult struct {
	Scan              ScanResult      `json:"scan"`
	OriginalDetection DetectionReport `json:"original_detection"`
	CleanedDetection  DetectionReport `json:"cleaned_detection"`
	Comparison        Comparison      `json:"comparison"`
	Disclaimer        string          `json:"disclaimer"`
}

// ComparisonRecord is a stored comparison with its lifecycle metadata.
type ComparisonRecord struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Status    string            `json:"status"` // "queued" | "completed" | "failed"
	Result    *ComparisonResult `json:"result,omitempty"`
	LastError string            `json:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DetectorInfo describes a configured detector for the listing endpoint.
type DetectorInfo struct {
	Detector     string `json:"detector"`
	DetectorName string `json:"detector_name"`
	Method       string `json:"method"`
	Role         string `json:"role"`
	Available    bool   `json:"available"`
}
