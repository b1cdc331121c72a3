package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeGenerator returns a canned response or error.
type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context,
	_ string,
	_ []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: f.text}},
				},
			},
		},
	}, nil
}

func TestSuggestCategory(t *testing.T) {
	client := NewClientWithGenerator(&fakeGenerator{
		text: `{"category": "food", "confidence": 0.9}`,
	})

	suggestion, err := client.SuggestCategory(context.Background(), "Coffee", []string{"food", "transport"})
	require.NoError(t, err)
	assert.Equal(t, "food", suggestion.Category)
	assert.InDelta(t, 0.9, suggestion.Confidence, 0.001)
}

func TestSuggestCategoryMatchesKnownCasing(t *testing.T) {
	client := NewClientWithGenerator(&fakeGenerator{
		text: `{"category": "FOOD", "confidence": 0.8}`,
	})

	suggestion, err := client.SuggestCategory(context.Background(), "Lunch", []string{"Food"})
	require.NoError(t, err)
	assert.Equal(t, "Food", suggestion.Category, "known category casing wins")
}

func TestSuggestCategoryWithPreamble(t *testing.T) {
	client := NewClientWithGenerator(&fakeGenerator{
		text: "Here is the JSON:\n{\"category\": \"transport\", \"confidence\": 0.7}",
	})

	suggestion, err := client.SuggestCategory(context.Background(), "Taxi", nil)
	require.NoError(t, err)
	assert.Equal(t, "transport", suggestion.Category)
}

func TestSuggestCategoryErrors(t *testing.T) {
	tests := []struct {
		name      string
		generator *fakeGenerator
		input     string
	}{
		{name: "empty name", generator: &fakeGenerator{text: `{}`}, input: ""},
		{name: "api error", generator: &fakeGenerator{err: errors.New("quota exceeded")}, input: "Coffee"},
		{name: "no json", generator: &fakeGenerator{text: "sorry, no idea"}, input: "Coffee"},
		{name: "invalid json", generator: &fakeGenerator{text: `{"category": }`}, input: "Coffee"},
		{name: "empty category", generator: &fakeGenerator{text: `{"category": "  ", "confidence": 0.9}`}, input: "Coffee"},
		{name: "confidence too high", generator: &fakeGenerator{text: `{"category": "food", "confidence": 1.5}`}, input: "Coffee"},
		{name: "confidence negative", generator: &fakeGenerator{text: `{"category": "food", "confidence": -0.1}`}, input: "Coffee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClientWithGenerator(tt.generator)
			_, err := client.SuggestCategory(context.Background(), tt.input, nil)
			require.Error(t, err)
		})
	}
}

func TestSuggestCategoryNilClient(t *testing.T) {
	var client *Client
	_, err := client.SuggestCategory(context.Background(), "Coffee", nil)
	require.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `{"a": 1}`, want: `{"a": 1}`},
		{name: "preamble", input: "Sure!\n{\"a\": 1}", want: `{"a": 1}`},
		{name: "trailing text", input: `{"a": 1} hope that helps`, want: `{"a": 1}`},
		{name: "no object", input: "no json here", want: ""},
		{name: "unclosed", input: `{"a": 1`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}

func TestSanitizeForPrompt(t *testing.T) {
	assert.Equal(t, "it's 'quoted'", sanitizeForPrompt(`it"s `+"`quoted`", 100))
	assert.Equal(t, "a b c", sanitizeForPrompt("a\n\nb\t c", 100))

	long := sanitizeForPrompt("aaaa aaaa aaaa", 9)
	assert.LessOrEqual(t, len(long), 9)
}
