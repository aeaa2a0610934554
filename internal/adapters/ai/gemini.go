package ai

import (
	"context"

	"google.golang.org/genai"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

// NewGeminiScorer scores text with a Gemini model using a JSON response schema
func NewGeminiScorer(ctx context.Context, opts Options) (sentiment.TextScorer, error) {
	if opts.APIKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key not configured")
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    polaritySchema(),
		Temperature:       genai.Ptr[float32](0),
	}

	complete := func(ctx context.Context, text string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(text), config)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	return &llmScorer{
		provider: "gemini",
		complete: complete,
		limiter:  opts.limiter(),
		maxChars: opts.maxChars(),
	}, nil
}

func polaritySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"negative": {Type: genai.TypeNumber, Description: "Probability the text is negative, 0 to 1."},
			"positive": {Type: genai.TypeNumber, Description: "Probability the text is positive, 0 to 1."},
		},
		Required: []string{"negative", "positive"},
	}
}
