package services

import (
	"context"
	"fmt"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const storePingTimeout = 5 * time.Second

// Pinger checks that the store is reachable
type Pinger interface {
	PingWithTimeout(timeout time.Duration) error
}

// Ingester stores new articles from the configured feeds
type Ingester interface {
	Ingest(ctx context.Context, now time.Time) (int, error)
}

// ContentStore is the article storage the pipeline reads and updates
type ContentStore interface {
	ListMissingContent(ctx context.Context, limit int) ([]models.Article, error)
	UpdateContent(ctx context.Context, contents []models.ArticleContent) (int, error)
	ListRecent(ctx context.Context, limit int) ([]models.Article, error)
}

// ContentExtractor fetches article pages
type ContentExtractor interface {
	ExtractArticles(ctx context.Context, articles []models.Article) []models.ArticleContent
}

// DuplicateRemover deletes near-duplicate articles and returns the removed ids
type DuplicateRemover interface {
	Run(ctx context.Context) ([]int64, error)
}

// ArticleSummarizer always yields a complete summary
type ArticleSummarizer interface {
	Summarize(ctx context.Context, in models.SummaryInput) (models.SummaryDraft, string)
}

// PickWriter atomically replaces the picks of a date
type PickWriter interface {
	ReplaceDailyPicks(ctx context.Context, dateKey string, candidates []models.PickCandidate, now time.Time) (int, error)
}

// PicksPublisher pushes a finished digest somewhere outside the store
type PicksPublisher interface {
	Publish(ctx context.Context, dateKey string, candidates []models.PickCandidate) error
}

// PipelineDeps groups the collaborators of a pipeline run. Publisher may be nil.
type PipelineDeps struct {
	Store      Pinger
	Ingester   Ingester
	Articles   ContentStore
	Extractor  ContentExtractor
	Dedup      DuplicateRemover
	Ranker     *Ranker
	Summarizer ArticleSummarizer
	Picks      PickWriter
	Publisher  PicksPublisher
}

// Pipeline runs one end-to-end digest: ingest, extract, dedup, rank, summarize, persist
type Pipeline struct {
	deps         PipelineDeps
	config       models.PipelineConfig
	extractBatch int
	logger       *core.Logger
	now          func() time.Time
}

// NewPipeline creates a new pipeline
func NewPipeline(deps PipelineDeps, config models.PipelineConfig, extractBatch int, logger *core.Logger) *Pipeline {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Pipeline{
		deps:         deps,
		config:       config,
		extractBatch: extractBatch,
		logger:       logger,
		now:          time.Now,
	}
}

// DateKey formats t as YYYY-MM-DD in loc
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}

// Run executes the pipeline once. Only an unreachable store, a cancelled
// context or a failed pick write abort the run; the earlier stages degrade to
// a zero result.
func (p *Pipeline) Run(ctx context.Context) (*models.RunReport, error) {
	started := p.now()
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Date:      DateKey(started, p.config.Location),
		StartedAt: started.UTC(),
	}
	log := p.logger.With("run_id", report.RunID)
	log.Info("Starting pipeline run", "date", report.Date)

	if err := p.deps.Store.PingWithTimeout(storePingTimeout); err != nil {
		return nil, core.NewUnavailableError("store is unreachable", err)
	}

	report.NewItems = p.ingest(ctx, log, started)
	report.Extracted = p.extract(ctx, log)
	report.Deduped = p.dedup(ctx, log)

	candidates := p.selectCandidates(ctx, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picks, err := p.summarize(ctx, log, candidates)
	if err != nil {
		return nil, err
	}

	written, err := p.deps.Picks.ReplaceDailyPicks(ctx, report.Date, picks, p.now())
	if err != nil {
		return nil, core.NewDatabaseError(fmt.Sprintf("failed to store picks for %s", report.Date), err)
	}
	report.Picks = written

	if p.deps.Publisher != nil && written > 0 {
		if err := p.deps.Publisher.Publish(ctx, report.Date, picks); err != nil {
			log.Warn("Failed to publish digest", "error", err)
		}
	}

	report.FinishedAt = p.now().UTC()
	log.Info("Pipeline run finished",
		"new_items", report.NewItems,
		"extracted", report.Extracted,
		"deduped", report.Deduped,
		"picks", report.Picks,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (p *Pipeline) ingest(ctx context.Context, log *core.Logger, now time.Time) int {
	if p.deps.Ingester == nil {
		return 0
	}
	n, err := p.deps.Ingester.Ingest(ctx, now)
	if err != nil {
		log.Error("Ingest failed", "error", err)
		return 0
	}
	return n
}

func (p *Pipeline) extract(ctx context.Context, log *core.Logger) int {
	if p.deps.Extractor == nil {
		return 0
	}

	missing, err := p.deps.Articles.ListMissingContent(ctx, p.extractBatch)
	if err != nil {
		log.Error("Failed to list articles without content", "error", err)
		return 0
	}
	if len(missing) == 0 {
		return 0
	}

	contents := p.deps.Extractor.ExtractArticles(ctx, missing)
	if _, err := p.deps.Articles.UpdateContent(ctx, contents); err != nil {
		log.Error("Failed to store extracted content", "error", err)
		return 0
	}

	extracted := 0
	for _, c := range contents {
		if c.ContentText != "" {
			extracted++
		}
	}
	log.Info("Extracted article content", "attempted", len(missing), "extracted", extracted)
	return extracted
}

func (p *Pipeline) dedup(ctx context.Context, log *core.Logger) int {
	if p.deps.Dedup == nil {
		return 0
	}
	removed, err := p.deps.Dedup.Run(ctx)
	if err != nil {
		log.Error("Dedup failed", "error", err)
		return 0
	}
	return len(removed)
}

// selectCandidates ranks the recent window and keeps the top articles with enough text
func (p *Pipeline) selectCandidates(ctx context.Context, log *core.Logger) []models.ScoredArticle {
	recent, err := p.deps.Articles.ListRecent(ctx, p.config.RankWindow)
	if err != nil {
		log.Error("Failed to load articles for ranking", "error", err)
		return nil
	}

	ranked := p.deps.Ranker.Rank(recent, p.now())

	eligible := make([]models.ScoredArticle, 0, len(ranked))
	for _, a := range ranked {
		if a.HasText(p.config.MinTextLength) {
			eligible = append(eligible, a)
		}
	}

	if len(eligible) > p.config.SummarizeCap {
		eligible = eligible[:p.config.SummarizeCap]
	}
	if len(eligible) > p.config.DailyTopK {
		eligible = eligible[:p.config.DailyTopK]
	}

	log.Info("Selected candidates", "ranked", len(ranked), "selected", len(eligible))
	return eligible
}

// summarize runs sequentially, spacing provider calls by the configured delay
func (p *Pipeline) summarize(ctx context.Context, log *core.Logger, candidates []models.ScoredArticle) ([]models.PickCandidate, error) {
	limit := rate.Inf
	if p.config.SummarizeDelay > 0 {
		limit = rate.Every(p.config.SummarizeDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	picks := make([]models.PickCandidate, 0, len(candidates))
	for i, a := range candidates {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("summarize interrupted: %w", err)
		}

		draft, provider := p.deps.Summarizer.Summarize(ctx, models.SummaryInput{
			URL:     a.URL,
			Title:   a.Title,
			Source:  a.Source,
			Content: a.ContentText,
		})
		log.Info("Summarized article", "rank", i+1, "article_id", a.ID, "provider", provider)

		picks = append(picks, models.PickCandidate{Article: a, Summary: draft})
	}
	return picks, nil
}
