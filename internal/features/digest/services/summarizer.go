package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/v2"
	"google.golang.org/api/googleapi"
)

const maxPromptContent = 4000

var (
	// ErrMalformedResponse means the provider answered but the body could not be used
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrNoCandidates means the provider returned no content at all
	ErrNoCandidates = errors.New("provider returned no content")
)

// Strategy is one way of producing a summary
type Strategy interface {
	Name() string
	Summarize(ctx context.Context, in models.SummaryInput) (*models.SummaryDraft, error)
}

// FailureClass groups provider errors for logging
type FailureClass string

const (
	FailureAuth      FailureClass = "auth"
	FailureQuota     FailureClass = "quota"
	FailureMalformed FailureClass = "malformed"
	FailureBlocked   FailureClass = "blocked"
	FailureTransport FailureClass = "transport"
	FailurePanic     FailureClass = "panic"
)

// ClassifyFailure maps a provider error to a FailureClass
func ClassifyFailure(err error) FailureClass {
	var panicErr *strategyPanic
	if errors.As(err, &panicErr) {
		return FailurePanic
	}

	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrNoCandidates) {
		return FailureMalformed
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return classifyStatus(oaErr.StatusCode)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return FailureBlocked
	}

	return FailureTransport
}

func classifyStatus(code int) FailureClass {
	switch {
	case code == 401 || code == 403:
		return FailureAuth
	case code == 429:
		return FailureQuota
	case code >= 400 && code < 500:
		return FailureMalformed
	default:
		return FailureTransport
	}
}

type strategyPanic struct {
	value any
}

func (p *strategyPanic) Error() string {
	return fmt.Sprintf("strategy panicked: %v", p.value)
}

// Summarizer tries its strategies in order and falls back to the offline
// strategy, so it always yields a complete summary.
type Summarizer struct {
	strategies []Strategy
	offline    *OfflineStrategy
	logger     *core.Logger
}

// NewSummarizer builds a chain from the given strategies followed by the offline strategy.
// Nil strategies are skipped, which lets callers pass providers that are not configured.
func NewSummarizer(logger *core.Logger, strategies ...Strategy) *Summarizer {
	chain := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil && !isNilStrategy(s) {
			chain = append(chain, s)
		}
	}
	return &Summarizer{
		strategies: chain,
		offline:    NewOfflineStrategy(),
		logger:     logger,
	}
}

func isNilStrategy(s Strategy) bool {
	switch v := s.(type) {
	case *OpenAIStrategy:
		return v == nil
	case *GeminiStrategy:
		return v == nil
	case *OfflineStrategy:
		return v == nil
	}
	return false
}

// Providers returns the names of the strategies in the order they are tried
func (s *Summarizer) Providers() []string {
	names := make([]string, 0, len(s.strategies)+1)
	for _, st := range s.strategies {
		names = append(names, st.Name())
	}
	return append(names, s.offline.Name())
}

// Summarize returns the first successful summary and the name of the strategy that produced it
func (s *Summarizer) Summarize(ctx context.Context, in models.SummaryInput) (models.SummaryDraft, string) {
	for _, st := range s.strategies {
		draft, err := safeSummarize(ctx, st, in)
		if err == nil && draft != nil {
			return complete(*draft, in), st.Name()
		}
		if err == nil {
			err = ErrNoCandidates
		}
		s.logger.Warn("Summarizer provider failed, falling back",
			"provider", st.Name(),
			"class", ClassifyFailure(err),
			"url", in.URL,
			"error", err,
		)
	}

	draft, _ := s.offline.Summarize(ctx, in)
	return complete(*draft, in), s.offline.Name()
}

func safeSummarize(ctx context.Context, st Strategy, in models.SummaryInput) (draft *models.SummaryDraft, err error) {
	defer func() {
		if p := recover(); p != nil {
			draft, err = nil, &strategyPanic{value: p}
		}
	}()
	return st.Summarize(ctx, in)
}

// complete fills every missing field with a deterministic default
func complete(d models.SummaryDraft, in models.SummaryInput) models.SummaryDraft {
	d.TitleVI = strings.TrimSpace(d.TitleVI)
	if d.TitleVI == "" {
		d.TitleVI = strings.TrimSpace(in.Title)
	}
	if d.TitleVI == "" {
		d.TitleVI = offlineTitlePrefix
	}

	d.Bullets = nonEmpty(d.Bullets)
	if len(d.Bullets) == 0 {
		d.Bullets = []string{placeholderBullet}
	}

	d.SoWhatVN = strings.TrimSpace(d.SoWhatVN)
	if d.SoWhatVN == "" {
		d.SoWhatVN = offlineSoWhat
	}

	d.Hashtags = normalizeHashtags(d.Hashtags)
	if len(d.Hashtags) == 0 {
		d.Hashtags = []string{baseHashtag}
	}

	if strings.TrimSpace(d.Attribution) == "" {
		d.Attribution = in.Source
	}
	if strings.TrimSpace(d.URL) == "" {
		d.URL = in.URL
	}
	return d
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func normalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "")
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		tag = "#" + tag
		if seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}

func systemPrompt(lang string) string {
	return fmt.Sprintf(`Bạn là biên tập viên công nghệ. Hãy tóm tắt bài viết về AI sang %s.
Toàn bộ nội dung trả về phải bằng tiếng Việt tự nhiên.
Yêu cầu:
- title_vi: tiêu đề 60-90 ký tự, chính xác và hấp dẫn.
- bullets: 3-5 ý (cái mới, vì sao quan trọng, số liệu nếu có, ứng dụng).
- so_what_vn: 1-2 câu về ý nghĩa đối với Việt Nam.
- hashtags: 3 hashtag ngắn, ví dụ #AInews, #LLM.
Chỉ trả về một đối tượng JSON với các trường: title_vi, bullets, so_what_vn, hashtags, attribution, url.`, lang)
}

func userPrompt(in models.SummaryInput) string {
	return fmt.Sprintf("[TITLE]: %s\n[SOURCE]: %s\n[URL]: %s\n[CONTENT]:\n%s",
		in.Title, in.Source, in.URL, truncateRunes(in.Content, maxPromptContent))
}
