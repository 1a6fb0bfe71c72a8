package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/migrations"
	"ainews/internal/features/digest/models"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *core.Database {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	logger := core.NewDiscardLogger()
	db := core.NewDatabase(sqlDB, core.DialectSQLite, logger)
	if err := migrations.NewManager(db, logger).Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestArticleServiceCreateSkipsExistingURLs(t *testing.T) {
	db := newTestDB(t)
	svc := NewArticleService(db, core.NewDiscardLogger())
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	first := []models.ArticleCreate{
		{URL: "https://example.com/a", Title: "OpenAI ships a model", Source: "OpenAI Blog", PublishedAt: timePtr(now.Add(-2 * time.Hour))},
		{URL: "https://example.com/b", Title: "DeepMind agent paper", Source: "DeepMind"},
	}
	n, err := svc.CreateArticles(ctx, first, now)
	if err != nil {
		t.Fatalf("CreateArticles failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 inserted, got %d", n)
	}

	second := []models.ArticleCreate{
		{URL: "https://example.com/a", Title: "OpenAI ships a model", Source: "OpenAI Blog"},
		{URL: "https://example.com/c", Title: "New LLM benchmark", Source: "Wired AI", PublishedAt: timePtr(now.Add(-time.Hour))},
	}
	n, err = svc.CreateArticles(ctx, second, now)
	if err != nil {
		t.Fatalf("CreateArticles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected only the new URL to be inserted, got %d", n)
	}

	recent, err := svc.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(recent))
	}

	wantOrder := []string{"https://example.com/b", "https://example.com/c", "https://example.com/a"}
	for i, url := range wantOrder {
		if recent[i].URL != url {
			t.Errorf("Position %d: expected %s, got %s", i, url, recent[i].URL)
		}
	}

	undated := recent[0]
	if undated.PublishedAt == nil || !undated.PublishedAt.Equal(now) {
		t.Errorf("Expected missing publish date to default to fetch time, got %v", undated.PublishedAt)
	}
}

func TestArticleServiceContentLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewArticleService(db, core.NewDiscardLogger())
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := svc.CreateArticles(ctx, []models.ArticleCreate{
		{URL: "https://example.com/1", Title: "AI one", Source: "s"},
		{URL: "https://example.com/2", Title: "AI two", Source: "s"},
	}, now); err != nil {
		t.Fatalf("CreateArticles failed: %v", err)
	}

	missing, err := svc.ListMissingContent(ctx, 10)
	if err != nil {
		t.Fatalf("ListMissingContent failed: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("Expected 2 articles without content, got %d", len(missing))
	}

	if _, err := svc.UpdateContent(ctx, []models.ArticleContent{
		{ArticleID: missing[0].ID, ContentText: "body text", OGImage: "https://img.example.com/1.png"},
		{ArticleID: missing[1].ID, OGImage: "https://img.example.com/2.png"},
	}); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	got, err := svc.GetArticle(ctx, missing[0].ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.ContentText != "body text" || got.OGImage != "https://img.example.com/1.png" {
		t.Errorf("Unexpected article after update: %+v", got)
	}

	missing, err = svc.ListMissingContent(ctx, 10)
	if err != nil {
		t.Fatalf("ListMissingContent failed: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("Expected 1 article still without content, got %d", len(missing))
	}
	if missing[0].OGImage != "https://img.example.com/2.png" {
		t.Errorf("Expected image-only update to be kept, got %q", missing[0].OGImage)
	}

	deleted, err := svc.DeleteArticles(ctx, []int64{missing[0].ID})
	if err != nil {
		t.Fatalf("DeleteArticles failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	if _, err := svc.GetArticle(ctx, missing[0].ID); err == nil {
		t.Error("Expected deleted article to be gone")
	}
}

func TestGetArticleNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewArticleService(db, core.NewDiscardLogger())

	_, err := svc.GetArticle(context.Background(), 999)
	appErr, ok := err.(*core.AppError)
	if !ok {
		t.Fatalf("Expected *core.AppError, got %T", err)
	}
	if appErr.Code != core.ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", appErr.Code)
	}
}

func seedArticles(t *testing.T, svc *ArticleService, now time.Time, n int) []models.Article {
	t.Helper()
	ctx := context.Background()

	var batch []models.ArticleCreate
	for i := 0; i < n; i++ {
		batch = append(batch, models.ArticleCreate{
			URL:         "https://example.com/seed/" + string(rune('a'+i)),
			Title:       "Seed AI story " + string(rune('A'+i)),
			Source:      "OpenAI Blog",
			PublishedAt: timePtr(now.Add(-time.Duration(i) * time.Hour)),
		})
	}
	if _, err := svc.CreateArticles(ctx, batch, now); err != nil {
		t.Fatalf("Failed to seed articles: %v", err)
	}

	articles, err := svc.ListRecent(ctx, n)
	if err != nil {
		t.Fatalf("Failed to list seeded articles: %v", err)
	}
	return articles
}

func TestPickServiceReplaceDailyPicks(t *testing.T) {
	db := newTestDB(t)
	logger := core.NewDiscardLogger()
	articles := NewArticleService(db, logger)
	picks := NewPickService(db, logger)
	summaries := NewSummaryService(db, logger)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seeded := seedArticles(t, articles, now, 3)

	candidate := func(a models.Article, title string) models.PickCandidate {
		return models.PickCandidate{
			Article: models.ScoredArticle{Article: a},
			Summary: models.SummaryDraft{
				TitleVI:     title,
				Bullets:     []string{"một", "hai"},
				SoWhatVN:    "ý nghĩa",
				Hashtags:    []string{"#AInews", "#LLM"},
				Attribution: a.Source,
				URL:         a.URL,
			},
		}
	}

	n, err := picks.ReplaceDailyPicks(ctx, "2025-03-01", []models.PickCandidate{
		candidate(seeded[0], "first"),
		candidate(seeded[1], "second"),
		candidate(seeded[2], "third"),
	}, now)
	if err != nil {
		t.Fatalf("ReplaceDailyPicks failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("Expected 3 picks, got %d", n)
	}

	n, err = picks.ReplaceDailyPicks(ctx, "2025-03-01", []models.PickCandidate{
		candidate(seeded[2], "only"),
	}, now)
	if err != nil {
		t.Fatalf("ReplaceDailyPicks failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 pick, got %d", n)
	}

	stored, err := picks.ListPicks(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("ListPicks failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Rank != 1 || stored[0].ArticleID != seeded[2].ID {
		t.Fatalf("Expected the replaced set to hold one rank-1 pick, got %+v", stored)
	}

	summary, err := summaries.GetSummary(ctx, stored[0].SummaryID)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.TitleVI != "only" || len(summary.Bullets) != 2 || len(summary.Hashtags) != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	posts, err := picks.ListTopPosts(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("ListTopPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 top post, got %d", len(posts))
	}
	if posts[0].TitleVI != "only" || posts[0].Source != "OpenAI Blog" || posts[0].URL != seeded[2].URL {
		t.Errorf("Unexpected top post: %+v", posts[0])
	}
}

func TestListTopPostsEmptyDate(t *testing.T) {
	db := newTestDB(t)
	picks := NewPickService(db, core.NewDiscardLogger())

	posts, err := picks.ListTopPosts(context.Background(), "2000-01-01")
	if err != nil {
		t.Fatalf("ListTopPosts failed: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("Expected an empty non-nil slice, got %#v", posts)
	}
}

func TestInsertSummaryTruncates(t *testing.T) {
	db := newTestDB(t)
	logger := core.NewDiscardLogger()
	articles := NewArticleService(db, logger)
	picks := NewPickService(db, logger)
	summaries := NewSummaryService(db, logger)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seeded := seedArticles(t, articles, now, 1)

	longTitle := ""
	for i := 0; i < 300; i++ {
		longTitle += "ă"
	}
	var tags []string
	for i := 0; i < 40; i++ {
		tags = append(tags, "#Hashtag")
	}

	if _, err := picks.ReplaceDailyPicks(ctx, "2025-03-01", []models.PickCandidate{{
		Article: models.ScoredArticle{Article: seeded[0]},
		Summary: models.SummaryDraft{TitleVI: longTitle, Bullets: []string{"x"}, Hashtags: tags},
	}}, now); err != nil {
		t.Fatalf("ReplaceDailyPicks failed: %v", err)
	}

	stored, err := picks.ListPicks(ctx, "2025-03-01")
	if err != nil || len(stored) != 1 {
		t.Fatalf("ListPicks failed: %v (%d picks)", err, len(stored))
	}

	summary, err := summaries.GetSummary(ctx, stored[0].SummaryID)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if got := len([]rune(summary.TitleVI)); got != maxTitleLength {
		t.Errorf("Expected title truncated to %d runes, got %d", maxTitleLength, got)
	}

	joined := 0
	for i, h := range summary.Hashtags {
		if i > 0 {
			joined++
		}
		joined += len(h)
	}
	if joined > maxHashtagsLength {
		t.Errorf("Expected hashtags truncated to %d characters, got %d", maxHashtagsLength, joined)
	}
}
