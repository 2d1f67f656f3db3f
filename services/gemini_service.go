package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"redmatch_server/models"
	"redmatch_server/utils"

	"google.golang.org/genai"
)

const (
	ProviderGemini     = "gemini"
	defaultGeminiModel = "gemini-2.5-flash"

	modelCallTimeout = 60 * time.Second

	// per-post truncation before inclusion in the prompt
	promptPostLimit = 300
)

// GeminiService calls the Gemini API for compatibility analysis. A service
// with no API key is still constructable; Generate then fails with a config
// error, keeping missing credentials a request-time concern.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates the model client. An empty apiKey yields a service
// whose Generate returns a config error.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	svc := &GeminiService{model: model}
	if apiKey == "" {
		return svc, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return svc, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	svc.client = client
	return svc, nil
}

// Provider returns the tag persisted with each analysis.
func (s *GeminiService) Provider() string {
	return ProviderGemini
}

// Generate sends the prompt and returns the raw model text.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", ErrConfig("Gemini API key is not configured.")
	}

	ctx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", ErrModel(err.Error())
	}
	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrModel("model returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// BuildPrompt renders the deterministic analysis prompt: persona, numbered
// post pairs (each side capped at 300 chars), and the required JSON shape.
func BuildPrompt(pairs []models.Pair, nameA, nameB string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert social psychologist analyzing Reddit users for compatibility.\n\n")
	fmt.Fprintf(&b, "Users: u/%s and u/%s\n\n", nameA, nameB)
	b.WriteString("Sample post comparisons:\n")

	for i, pair := range pairs {
		fmt.Fprintf(&b, "\nPair %d:\n", i+1)
		fmt.Fprintf(&b, "- u/%s: %s\n", nameA, utils.Ellipsize(pair.A.Text, promptPostLimit))
		fmt.Fprintf(&b, "- u/%s: %s\n", nameB, utils.Ellipsize(pair.B.Text, promptPostLimit))
	}

	b.WriteString(`
Create an insightful compatibility assessment covering: an overall qualitative
rating (Excellent/High/Moderate/Low/Minimal), 3-5 shared interests or values
with specific examples from their posts, complementary differences (traits
that make them interesting to each other, not conflicts), communication style
(formal vs casual, humorous vs serious, data-driven vs emotional), the kind of
connection that would work best (friendship, mentorship, collaboration,
romantic), and 5 specific conversation starters. Tone: insightful, warm,
honest.

Respond with a single JSON object exactly matching this shape, with no
markdown fences and no surrounding prose:
{
  "overallScore": "Excellent|High|Moderate|Low|Minimal",
  "sharedInterests": [{"title": "...", "description": "..."}],
  "complementaryDifferences": "...",
  "communicationStyle": "...",
  "relationshipPotential": "...",
  "conversationStarters": ["...", "...", "...", "...", "..."]
}
`)

	return b.String()
}

// ParseReport turns raw model output into a CompatibilityReport. Malformed
// output is not an error: the structured fields stay empty and RawMarkdown
// carries the original text, which is the designed fallback rendering path.
func ParseReport(raw string) models.CompatibilityReport {
	report := models.CompatibilityReport{
		OverallScore:         models.OverallScoreIndeterminate,
		SharedInterests:      []models.SharedInterest{},
		ConversationStarters: []string{},
		RawMarkdown:          raw,
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return report
	}

	if s := stringField(payload, "overallScore"); s != "" {
		report.OverallScore = s
	}
	report.ComplementaryDifferences = stringField(payload, "complementaryDifferences")
	report.CommunicationStyle = stringField(payload, "communicationStyle")
	report.RelationshipPotential = stringField(payload, "relationshipPotential")

	if entries, ok := payload["sharedInterests"].([]interface{}); ok {
		for _, entry := range entries {
			m, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			report.SharedInterests = append(report.SharedInterests, models.SharedInterest{
				Title:       stringField(m, "title"),
				Description: stringField(m, "description"),
			})
		}
	}

	if starters, ok := payload["conversationStarters"].([]interface{}); ok {
		for _, starter := range starters {
			if s, ok := starter.(string); ok {
				report.ConversationStarters = append(report.ConversationStarters, s)
			}
		}
	}

	return report
}

// stripCodeFences removes a ``` or ```json wrapper the model sometimes adds
// despite instructions.
func stripCodeFences(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
