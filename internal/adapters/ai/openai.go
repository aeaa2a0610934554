package ai

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

// NewOpenAIScorer scores text with an OpenAI chat model
func NewOpenAIScorer(opts Options) (sentiment.TextScorer, error) {
	if opts.APIKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}
	model := openai.ChatModel(opts.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	client := openai.NewClient(option.WithAPIKey(opts.APIKey))

	complete := func(ctx context.Context, text string) (string, error) {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(text),
			},
			Temperature: openai.Float(0),
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("empty choices")
		}
		return resp.Choices[0].Message.Content, nil
	}

	return &llmScorer{
		provider: "openai",
		complete: complete,
		limiter:  opts.limiter(),
		maxChars: opts.maxChars(),
	}, nil
}
