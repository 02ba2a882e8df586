package detectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/zombar/ghosted/internal/models"
)

// DefaultOllamaModel is the judge model used when none is configured.
const DefaultOllamaModel = "llama3.1:8b"

// judgeMaxChars caps the text sent to the LLM judge.
const judgeMaxChars = 3000

const stylisticPrompt = `You are a text analysis tool that detects stylistic markers of AI-generated content.

Analyze the text for these specific markers:
- Hedging phrases ("It's important to note", "It's worth mentioning")
- Excessive em-dash usage
- Overly balanced/diplomatic tone
- Generic transitions ("Furthermore", "Moreover", "Additionally")
- Lists that are too perfectly structured
- Lack of personal voice or specific details

Respond with ONLY valid JSON:
{"ai_probability": <float 0.0 to 1.0>, "markers_found": ["list"], "reasoning": "1-2 sentences"}`

const structuralPrompt = `You are a text analysis tool that detects structural patterns of AI-generated content.

Analyze the text for these patterns:
- Uniform paragraph lengths
- Consistent sentence length (low variance)
- Repetitive sentence structures
- Vocabulary that is unusually consistent in register
- Perfect grammar with no natural errors
- Formulaic introduction/conclusion patterns

Respond with ONLY valid JSON:
{"ai_probability": <float 0.0 to 1.0>, "patterns_found": ["list"], "reasoning": "1-2 sentences"}`

// OllamaJudge is an LLM-as-judge detector running against a local or
// remote Ollama instance. Two variants exist, one analyzing stylistic
// markers and one structural patterns.
type OllamaJudge struct {
	id          string
	displayName string
	prompt      string
	client      *api.Client
	model       string
}

// NewOllamaStylistic creates the stylistic-marker judge.
func NewOllamaStylistic(ollamaURL, model string) (*OllamaJudge, error) {
	return newOllamaJudge("ollama_stylistic", "Llama Stylistic Analyzer", stylisticPrompt, ollamaURL, model)
}

// NewOllamaStructural creates the structural-pattern judge.
func NewOllamaStructural(ollamaURL, model string) (*OllamaJudge, error) {
	return newOllamaJudge("ollama_structural", "Llama Structural Analyzer", structuralPrompt, ollamaURL, model)
}

func newOllamaJudge(id, displayName, prompt, ollamaURL, model string) (*OllamaJudge, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	return &OllamaJudge{
		id:          id,
		displayName: displayName,
		prompt:      prompt,
		client:      api.NewClient(baseURL, http.DefaultClient),
		model:       model,
	}, nil
}

func (d *OllamaJudge) ID() string          { return d.id }
func (d *OllamaJudge) DisplayName() string { return d.displayName }
func (d *OllamaJudge) Method() string      { return MethodLLMAnalysis }
func (d *OllamaJudge) Role() Role          { return RoleFallback }
func (d *OllamaJudge) Available() bool     { return d.client != nil }

type judgeVerdict struct {
	AIProbability float64  `json:"ai_probability"`
	MarkersFound  []string `json:"markers_found"`
	PatternsFound []string `json:"patterns_found"`
	Reasoning     string   `json:"reasoning"`
}

func (d *OllamaJudge) Detect(ctx context.Context, text string) models.DetectorResult {
	prompt := fmt.Sprintf("%s\n\nAnalyze this text:\n\n%s", d.prompt, truncateRunes(text, judgeMaxChars))

	req := &api.GenerateRequest{
		Model:  d.model,
		Prompt: prompt,
		Stream: new(bool), // false
	}

	var response strings.Builder
	err := d.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return errorResult(d, fmt.Sprintf("generation failed: %v", err))
	}

	parsed, err := parseJudgeResponse(response.String())
	if err != nil {
		return errorResult(d, fmt.Sprintf("unparseable judge response: %v", err))
	}

	markers := parsed.MarkersFound
	if len(markers) == 0 {
		markers = parsed.PatternsFound
	}
	var noteParts []string
	if len(markers) > 0 {
		if len(markers) > 5 {
			markers = markers[:5]
		}
		noteParts = append(noteParts, "Markers: "+strings.Join(markers, ", "))
	}
	if parsed.Reasoning != "" {
		noteParts = append(noteParts, parsed.Reasoning)
	}
	note := "LLM-based analysis."
	if len(noteParts) > 0 {
		note = strings.Join(noteParts, ". ")
	}

	return scoredResult(d, parsed.AIProbability, note, nil)
}

// parseJudgeResponse extracts the JSON object from an LLM response,
// tolerating markdown code fences and surrounding prose.
func parseJudgeResponse(text string) (judgeVerdict, error) {
	var v judgeVerdict
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		text = strings.Join(lines[1:], "\n")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return v, fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return v, fmt.Errorf("failed to parse judge JSON: %w", err)
	}
	return v, nil
}
