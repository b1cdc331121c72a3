package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"gitlab.com/thiha/finance-bot/internal/logger"
)

// MaxNameLength caps the expense name embedded in the prompt.
const MaxNameLength = 200

// suggestTimeout bounds a single suggestion call; the expense flow must not
// hang on the API.
const suggestTimeout = 10 * time.Second

// CategorySuggestion is a suggested category for an expense name.
type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// SuggestCategory asks Gemini for the category that best fits an expense
// name, restricted to the categories the user has used before. knownCategories
// may be empty, in which case Gemini is free to propose a short new one.
func (c *Client) SuggestCategory(ctx context.Context, name string, knownCategories []string) (*CategorySuggestion, error) {
	if c == nil || c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if name == "" {
		return nil, fmt.Errorf("expense name is required")
	}

	prompt := buildSuggestionPrompt(sanitizeForPrompt(name, MaxNameLength), knownCategories)

	timeoutCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(200),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. Respond with ONLY a single valid JSON object, no preamble."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Description: "The most appropriate expense category",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
			},
			Required: []string{"category", "confidence"},
		},
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	jsonText := extractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var suggestion CategorySuggestion
	if err := json.Unmarshal([]byte(jsonText), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	suggestion.Category = strings.TrimSpace(suggestion.Category)
	if suggestion.Category == "" {
		return nil, fmt.Errorf("empty category in response")
	}
	if suggestion.Confidence < 0.0 || suggestion.Confidence > 1.0 {
		return nil, fmt.Errorf("confidence out of range: %f", suggestion.Confidence)
	}

	// Prefer the exact casing of a known category when Gemini matched one.
	for _, cat := range knownCategories {
		if strings.EqualFold(cat, suggestion.Category) {
			suggestion.Category = cat
			break
		}
	}

	logger.Log.Debug().
		Str("category", suggestion.Category).
		Float64("confidence", suggestion.Confidence).
		Msg("Category suggestion received")

	return &suggestion, nil
}

// buildSuggestionPrompt creates the prompt for category suggestion.
func buildSuggestionPrompt(name string, categories []string) string {
	if len(categories) == 0 {
		return fmt.Sprintf(`Suggest a short lowercase expense category (one or two words) for this expense: "%s"

Return JSON only:
{"category": "category name", "confidence": 0.0-1.0}`, name)
	}

	return fmt.Sprintf(`Categorize this expense: "%s"

Categories the user already uses:
- %s

Rules:
- Prefer an existing category when one fits
- Otherwise suggest a short lowercase category (one or two words)
- Higher confidence (0.8-1.0) for obvious matches, lower (0.5-0.7) for ambiguous ones

Return JSON only:
{"category": "category name", "confidence": 0.0-1.0}`, name, strings.Join(categories, "\n- "))
}

// extractJSON extracts a JSON object from text that may contain preamble.
// Gemini sometimes returns responses like "Here is the JSON:\n{...}" even
// when ResponseMIMEType is set to application/json.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// sanitizeForPrompt strips characters that could break prompt structure and
// truncates to maxLength.
func sanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.Join(strings.Fields(input), " ")
	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}
	return input
}
