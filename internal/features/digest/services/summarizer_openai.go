package services

import (
	"context"
	"fmt"

	"ainews/internal/features/digest/models"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIStrategy summarizes through the OpenAI chat completions API
type OpenAIStrategy struct {
	client openai.Client
	model  string
	lang   string
}

// NewOpenAIStrategy returns nil when apiKey is empty, which drops the tier from the chain.
// Retries are disabled: a failing call falls through to the next tier instead.
func NewOpenAIStrategy(apiKey, model, lang string, opts ...option.RequestOption) *OpenAIStrategy {
	if apiKey == "" {
		return nil
	}

	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	return &OpenAIStrategy{
		client: openai.NewClient(append(base, opts...)...),
		model:  model,
		lang:   lang,
	}
}

func (s *OpenAIStrategy) Name() string {
	return "openai"
}

func (s *OpenAIStrategy) Summarize(ctx context.Context, in models.SummaryInput) (*models.SummaryDraft, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(s.lang)),
			openai.UserMessage(userPrompt(in)),
		},
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoCandidates
	}

	return decodeSummary(resp.Choices[0].Message.Content)
}
