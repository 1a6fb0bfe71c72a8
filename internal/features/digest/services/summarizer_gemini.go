package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ainews/internal/features/digest/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiTitlePrefix = "[Tóm tắt]"
	geminiSoWhat      = "Tác động tại Việt Nam: "
	geminiMaxBullets  = 5
	geminiRawExcerpt  = 250
)

var bulletLinePattern = regexp.MustCompile(`(?m)^\s*[-•*]\s*(.+?)\s*$`)

type generateFunc func(ctx context.Context, system, user string) (string, error)

// GeminiStrategy summarizes through the Gemini API, asking for strict JSON
type GeminiStrategy struct {
	client   *genai.Client
	generate generateFunc
}

// NewGeminiStrategy returns nil when apiKey is empty, which drops the tier from the chain
func NewGeminiStrategy(ctx context.Context, apiKey, modelName, lang string, opts ...option.ClientOption) (*GeminiStrategy, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt(lang))}}

	generate := func(ctx context.Context, _ string, user string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(user))
		if err != nil {
			return "", fmt.Errorf("gemini request failed: %w", err)
		}
		return responseText(resp)
	}

	return &GeminiStrategy{client: client, generate: generate}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoCandidates
	}
	return sb.String(), nil
}

func (s *GeminiStrategy) Name() string {
	return "gemini"
}

// Summarize decodes the JSON answer. A body that is not JSON falls back to
// pulling bullet lines out of the free text.
func (s *GeminiStrategy) Summarize(ctx context.Context, in models.SummaryInput) (*models.SummaryDraft, error) {
	text, err := s.generate(ctx, "", userPrompt(in))
	if err != nil {
		return nil, err
	}

	draft, err := decodeSummary(text)
	if err != nil {
		draft = heuristicSummary(text, in)
	}

	if draft.Attribution == "" {
		draft.Attribution = in.Source
	}
	if draft.URL == "" {
		draft.URL = in.URL
	}
	return draft, nil
}

// Close releases the underlying client
func (s *GeminiStrategy) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func heuristicSummary(text string, in models.SummaryInput) *models.SummaryDraft {
	var bullets []string
	for _, m := range bulletLinePattern.FindAllStringSubmatch(text, -1) {
		bullets = append(bullets, m[1])
	}

	soWhat := geminiSoWhat
	if len(bullets) > 0 {
		soWhat += bullets[len(bullets)-1]
	}

	if len(bullets) > geminiMaxBullets {
		bullets = bullets[:geminiMaxBullets]
	}
	if len(bullets) == 0 {
		bullets = []string{truncateRunes(strings.TrimSpace(text), geminiRawExcerpt)}
	}

	return &models.SummaryDraft{
		TitleVI:     geminiTitlePrefix + " " + in.Title,
		Bullets:     bullets,
		SoWhatVN:    soWhat,
		Hashtags:    []string{"#AInews", "#Gemini", "#Tech"},
		Attribution: in.Source,
		URL:         in.URL,
	}
}
