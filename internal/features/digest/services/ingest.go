package services

import (
	"context"
	"fmt"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

// EntrySource yields raw feed entries
type EntrySource interface {
	FetchAll(ctx context.Context, sources []models.FeedSource) ([]models.RawEntry, error)
}

// ArticleWriter persists normalized articles
type ArticleWriter interface {
	CreateArticles(ctx context.Context, articles []models.ArticleCreate, fetchedAt time.Time) (int, error)
}

// IngestService turns configured feeds into stored articles
type IngestService struct {
	feeds      []models.FeedSource
	fetcher    EntrySource
	normalizer *Normalizer
	store      ArticleWriter
	logger     *core.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(feeds []models.FeedSource, fetcher EntrySource, normalizer *Normalizer, store ArticleWriter, logger *core.Logger) *IngestService {
	return &IngestService{
		feeds:      feeds,
		fetcher:    fetcher,
		normalizer: normalizer,
		store:      store,
		logger:     logger,
	}
}

// Ingest fetches every feed, keeps relevant entries and stores those whose
// canonical URL is new. It returns the number of articles inserted.
func (s *IngestService) Ingest(ctx context.Context, now time.Time) (int, error) {
	entries, err := s.fetcher.FetchAll(ctx, s.feeds)
	if err != nil && len(entries) == 0 {
		return 0, fmt.Errorf("failed to fetch feeds: %w", err)
	}

	seen := make(map[string]bool)
	var batch []models.ArticleCreate
	for _, entry := range entries {
		article, ok := s.normalizer.Normalize(entry)
		if !ok || seen[article.URL] {
			continue
		}
		seen[article.URL] = true
		batch = append(batch, article)
	}

	s.logger.Info("Normalized feed entries", "entries", len(entries), "relevant", len(batch))

	inserted, err := s.store.CreateArticles(ctx, batch, now)
	if err != nil {
		return 0, fmt.Errorf("failed to store articles: %w", err)
	}
	return inserted, nil
}
