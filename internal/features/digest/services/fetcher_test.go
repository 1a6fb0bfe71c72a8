package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example AI</title>
  <link>https://example.com</link>
  <item>
    <title>OpenAI ships a new model</title>
    <link>https://example.com/posts/1/?utm_source=rss</link>
    <pubDate>Mon, 03 Mar 2025 10:00:00 GMT</pubDate>
    <category>LLM</category>
  </item>
  <item>
    <title>Gardening tips</title>
    <link>https://example.com/posts/2</link>
  </item>
</channel>
</rss>`

func newFetcherForTest(retries int) *FetcherService {
	return NewFetcherService(core.NewDiscardLogger(), &models.FetcherConfig{
		UserAgent: "AINewsDigest/test",
		Timeout:   5 * time.Second,
		Retries:   retries,
	})
}

func TestFetchFeed(t *testing.T) {
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.UserAgent())
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	entries, err := newFetcherForTest(0).FetchFeed(context.Background(), models.FeedSource{Name: "Example", URL: srv.URL})
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Title != "OpenAI ships a new model" || first.Source != "Example" {
		t.Errorf("Unexpected entry: %+v", first)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected publish time: %v", first.PublishedAt)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "LLM" {
		t.Errorf("Unexpected categories: %v", first.Categories)
	}
	if entries[1].PublishedAt != nil {
		t.Errorf("Expected undated entry to have no publish time, got %v", entries[1].PublishedAt)
	}

	if ua, _ := userAgent.Load().(string); ua != "AINewsDigest/test" {
		t.Errorf("Expected configured user agent, got %q", ua)
	}
}

func TestFetchFeedDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newFetcherForTest(3).FetchFeed(context.Background(), models.FeedSource{Name: "Missing", URL: srv.URL})
	if err == nil {
		t.Fatal("Expected an error for a 404 feed")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected a single attempt for a 404, got %d", got)
	}
}

func TestFetchFeedRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	entries, err := newFetcherForTest(2).FetchFeed(context.Background(), models.FeedSource{Name: "Flaky", URL: srv.URL})
	if err != nil {
		t.Fatalf("Expected the retry to succeed, got %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
}

func TestFetchAllSkipsFailingFeeds(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer bad.Close()

	fetcher := newFetcherForTest(0)
	entries, err := fetcher.FetchAll(context.Background(), []models.FeedSource{
		{Name: "Bad", URL: bad.URL},
		{Name: "Good", URL: good.URL},
	})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected entries from the good feed only, got %d", len(entries))
	}

	if _, err := fetcher.FetchAll(context.Background(), []models.FeedSource{{Name: "Bad", URL: bad.URL}}); err == nil {
		t.Error("Expected an error when every feed fails")
	}
}

type stubEntrySource struct {
	entries []models.RawEntry
	err     error
}

func (s *stubEntrySource) FetchAll(ctx context.Context, sources []models.FeedSource) ([]models.RawEntry, error) {
	return s.entries, s.err
}

func TestIngestService(t *testing.T) {
	db := newTestDB(t)
	logger := core.NewDiscardLogger()
	store := NewArticleService(db, logger)
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	source := &stubEntrySource{entries: []models.RawEntry{
		{Title: "OpenAI ships a new model", Link: "https://example.com/posts/1/?utm_source=rss", Source: "Example"},
		{Title: "OpenAI ships a new model", Link: "https://example.com/posts/1", Source: "Example"},
		{Title: "Gardening tips", Link: "https://example.com/posts/2", Source: "Example"},
		{Title: "", Link: "https://example.com/posts/3", Source: "Example"},
	}}

	ingest := NewIngestService(nil, source, NewNormalizer(models.DefaultLexicon()), store, logger)

	n, err := ingest.Ingest(context.Background(), now)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 new article, got %d", n)
	}

	n, err = ingest.Ingest(context.Background(), now)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected re-ingest to add nothing, got %d", n)
	}

	articles, err := store.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(articles) != 1 || articles[0].URL != "https://example.com/posts/1" {
		t.Errorf("Expected one canonical article, got %+v", articles)
	}
}
