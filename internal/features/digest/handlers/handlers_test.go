package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	"github.com/go-chi/chi/v5"
)

type stubPicks struct {
	posts map[string][]models.TopPost
	err   error
	asked []string
}

func (s *stubPicks) ListTopPosts(ctx context.Context, dateKey string) ([]models.TopPost, error) {
	s.asked = append(s.asked, dateKey)
	if s.err != nil {
		return nil, s.err
	}
	if posts, ok := s.posts[dateKey]; ok {
		return posts, nil
	}
	return []models.TopPost{}, nil
}

type stubRecords struct {
	articles  map[int64]models.Article
	summaries map[int64]models.Summary
	err       error
}

func (s *stubRecords) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.articles[id]
	if !ok {
		return nil, core.NewNotFoundError("article not found", nil)
	}
	return &a, nil
}

func (s *stubRecords) GetSummary(ctx context.Context, id int64) (*models.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	sum, ok := s.summaries[id]
	if !ok {
		return nil, core.NewNotFoundError("summary not found", nil)
	}
	return &sum, nil
}

func newTestRouter(picks PicksReader) (http.Handler, *Handlers) {
	return newTestRouterWithRecords(picks, &stubRecords{})
}

func newTestRouterWithRecords(picks PicksReader, records *stubRecords) (http.Handler, *Handlers) {
	h := NewHandlers(core.NewDiscardLogger(), picks, records, records, time.FixedZone("ICT", 7*3600))
	h.now = func() time.Time { return time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Get("/api/picks/today", h.TodayPicks)
	r.Get("/api/picks/{date}", h.PicksByDate)
	r.Get("/api/articles/{id}", h.ArticleByID)
	r.Get("/api/summaries/{id}", h.SummaryByID)
	return r, h
}

var samplePost = models.TopPost{
	Rank:        1,
	TitleVI:     "OpenAI ra mắt <mô hình> mới",
	Bullets:     []string{"Ý một", "Ý hai"},
	SoWhatVN:    "Doanh nghiệp Việt có thể thử.",
	Hashtags:    []string{"#AInews", "#LLM"},
	Attribution: "OpenAI Blog",
	Source:      "OpenAI Blog",
	URL:         "https://openai.com/news/model",
	OGImage:     "https://openai.com/hero.png",
}

func TestTodayPicks(t *testing.T) {
	picks := &stubPicks{posts: map[string][]models.TopPost{"2025-03-04": {samplePost}}}
	router, _ := newTestRouter(picks)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks/today", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp models.DailyPicksResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Date != "2025-03-04" {
		t.Errorf("Expected date in the configured zone, got %s", resp.Date)
	}
	if len(resp.TopPosts) != 1 || resp.TopPosts[0].TitleVI != samplePost.TitleVI {
		t.Errorf("Unexpected posts: %+v", resp.TopPosts)
	}
}

func TestPicksEmptyIsNotAnError(t *testing.T) {
	router, _ := newTestRouter(&stubPicks{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks/2024-12-31", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"date":"2024-12-31","top_posts":[]}` {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestPicksByDateValidation(t *testing.T) {
	picks := &stubPicks{}
	router, _ := newTestRouter(picks)

	for _, date := range []string{"yesterday", "2025-13-01", "2025-3-4"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks/"+date, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", date, rec.Code)
			continue
		}

		var resp core.ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode error: %v", err)
		}
		if resp.Success || resp.Error == nil || resp.Error.Code != core.ErrCodeValidation {
			t.Errorf("%s: unexpected error body %+v", date, resp)
		}
	}

	if len(picks.asked) != 0 {
		t.Errorf("Expected invalid dates to never reach the store, got %v", picks.asked)
	}
}

func TestPicksStoreError(t *testing.T) {
	router, _ := newTestRouter(&stubPicks{err: errors.New("disk on fire")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks/today", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestHomePage(t *testing.T) {
	picks := &stubPicks{posts: map[string][]models.TopPost{"2025-03-04": {samplePost}}}
	router, _ := newTestRouter(picks)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "OpenAI ra mắt &lt;mô hình&gt; mới") {
		t.Error("Expected the escaped title on the page")
	}
	if strings.Contains(body, "<mô hình>") {
		t.Error("Expected the title to be HTML escaped")
	}
	if !strings.Contains(body, "border-indigo-400") {
		t.Error("Expected the first card to be highlighted")
	}
	if !strings.Contains(body, "#AInews #LLM") {
		t.Error("Expected the caption to carry hashtags")
	}
}

func TestCaption(t *testing.T) {
	want := "OpenAI ra mắt <mô hình> mới\n• Ý một\n• Ý hai\nDoanh nghiệp Việt có thể thử.\n#AInews #LLM\nNguồn: OpenAI Blog https://openai.com/news/model"
	if got := Caption(samplePost); got != want {
		t.Errorf("Caption() = %q, want %q", got, want)
	}
}

func TestArticleAndSummaryByID(t *testing.T) {
	records := &stubRecords{
		articles: map[int64]models.Article{
			5: {ID: 5, URL: "https://example.com/a", Title: "New LLM architecture announced", Source: "OpenAI Blog"},
		},
		summaries: map[int64]models.Summary{
			9: {ID: 9, ArticleID: 5, SummaryDraft: models.SummaryDraft{TitleVI: "Kiến trúc LLM mới"}},
		},
	}
	router, _ := newTestRouterWithRecords(&stubPicks{}, records)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/articles/5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for article, got %d", rec.Code)
	}
	var article models.Article
	if err := json.NewDecoder(rec.Body).Decode(&article); err != nil {
		t.Fatalf("Failed to decode article: %v", err)
	}
	if article.URL != "https://example.com/a" {
		t.Errorf("Unexpected article: %+v", article)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for summary, got %d", rec.Code)
	}
	var summary models.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.ArticleID != 5 || summary.TitleVI != "Kiến trúc LLM mới" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name    string
		records *stubRecords
		path    string
		want    int
	}{
		{"bad id", &stubRecords{}, "/api/articles/abc", http.StatusBadRequest},
		{"zero id", &stubRecords{}, "/api/summaries/0", http.StatusBadRequest},
		{"missing article", &stubRecords{}, "/api/articles/42", http.StatusNotFound},
		{"missing summary", &stubRecords{}, "/api/summaries/42", http.StatusNotFound},
		{"store failure", &stubRecords{err: errors.New("locked")}, "/api/articles/1", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouterWithRecords(&stubPicks{}, tt.records)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHomePageRendersComponent(t *testing.T) {
	second := samplePost
	second.Rank = 2
	second.OGImage = ""

	var sb strings.Builder
	if err := HomePage("2025-03-04", []models.TopPost{samplePost, second}).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html := sb.String()
	if strings.Count(html, "<article") != 2 {
		t.Errorf("Expected two cards, got %s", html)
	}
	if strings.Count(html, "border-indigo-400") != 1 {
		t.Error("Expected only the top pick to be highlighted")
	}
	if !strings.Contains(html, `src="https://openai.com/hero.png"`) {
		t.Error("Expected the hero image of the first post")
	}
	if !strings.Contains(html, "2. OpenAI ra mắt &lt;mô hình&gt; mới") {
		t.Error("Expected the second card to carry its rank")
	}

	sb.Reset()
	if err := HomePage("2025-03-04", nil).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(sb.String(), "Chưa có bài chọn") {
		t.Error("Expected the empty state message")
	}
}
