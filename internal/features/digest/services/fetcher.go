package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
)

// FetcherService downloads and parses RSS and Atom feeds
type FetcherService struct {
	client *http.Client
	logger *core.Logger
	config *models.FetcherConfig
}

// NewFetcherService creates a new fetcher service
func NewFetcherService(logger *core.Logger, config *models.FetcherConfig) *FetcherService {
	return &FetcherService{
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
		config: config,
	}
}

// FetchFeed fetches one feed and converts its items into raw entries.
// Transient failures are retried with exponential backoff.
func (f *FetcherService) FetchFeed(ctx context.Context, source models.FeedSource) ([]models.RawEntry, error) {
	var feed *gofeed.Feed

	operation := func() error {
		parser := gofeed.NewParser()
		parser.Client = f.client
		parser.UserAgent = f.config.UserAgent

		parsed, err := parser.ParseURLWithContext(source.URL, ctx)
		if err != nil {
			var httpErr gofeed.HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		feed = parsed
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	retries := uint64(max(f.config.Retries, 0))

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", source.URL, err)
	}

	entries := make([]models.RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, entryFromItem(item, sourceName(source, feed)))
	}

	f.logger.Info("Fetched feed", "source", source.Name, "url", source.URL, "entries", len(entries))
	return entries, nil
}

// FetchAll fetches every source in order. A failing feed is logged and skipped.
func (f *FetcherService) FetchAll(ctx context.Context, sources []models.FeedSource) ([]models.RawEntry, error) {
	var entries []models.RawEntry
	failed := 0

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		items, err := f.FetchFeed(ctx, source)
		if err != nil {
			failed++
			f.logger.Warn("Skipping feed", "source", source.Name, "error", err)
			continue
		}
		entries = append(entries, items...)
	}

	if failed > 0 && failed == len(sources) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}
	return entries, nil
}

func entryFromItem(item *gofeed.Item, source string) models.RawEntry {
	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}

	return models.RawEntry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Source:      source,
		PublishedAt: published,
		Categories:  item.Categories,
	}
}

func sourceName(source models.FeedSource, feed *gofeed.Feed) string {
	if source.Name != "" {
		return source.Name
	}
	if feed.Title != "" {
		return feed.Title
	}
	return "unknown"
}
