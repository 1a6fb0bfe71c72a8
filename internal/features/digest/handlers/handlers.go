package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
	"ainews/internal/features/digest/services"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// PicksReader reads the stored picks of a date
type PicksReader interface {
	ListTopPosts(ctx context.Context, dateKey string) ([]models.TopPost, error)
}

// ArticleReader loads one stored article
type ArticleReader interface {
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
}

// SummaryReader loads one stored summary
type SummaryReader interface {
	GetSummary(ctx context.Context, id int64) (*models.Summary, error)
}

// Handlers contains the digest feature HTTP handlers
type Handlers struct {
	logger    *core.Logger
	picks     PicksReader
	articles  ArticleReader
	summaries SummaryReader
	location  *time.Location
	now       func() time.Time
}

// NewHandlers creates a new handlers instance. Dates are resolved in loc.
func NewHandlers(logger *core.Logger, picks PicksReader, articles ArticleReader, summaries SummaryReader, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		logger:    logger,
		picks:     picks,
		articles:  articles,
		summaries: summaries,
		location:  loc,
		now:       time.Now,
	}
}

// TodayPicks returns today's picks. An empty list means the pipeline has not run yet.
func (h *Handlers) TodayPicks(w http.ResponseWriter, r *http.Request) {
	h.writePicks(w, r, services.DateKey(h.now(), h.location))
}

// PicksByDate returns the picks of the YYYY-MM-DD date in the URL
func (h *Handlers) PicksByDate(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	date, err := time.ParseInLocation(time.DateOnly, raw, h.location)
	if err != nil {
		core.HandleError(w, core.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw), err))
		return
	}
	h.writePicks(w, r, date.Format(time.DateOnly))
}

func (h *Handlers) writePicks(w http.ResponseWriter, r *http.Request, dateKey string) {
	posts, err := h.picks.ListTopPosts(r.Context(), dateKey)
	if err != nil {
		h.logger.Error("Failed to list picks", "date", dateKey, "error", err)
		core.HandleError(w, core.NewDatabaseError("failed to load picks", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, models.DailyPicksResponse{
		Date:     dateKey,
		TopPosts: posts,
	})
}

// ArticleByID returns one stored article, including its extracted text
func (h *Handlers) ArticleByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	article, err := h.articles.GetArticle(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, "article", id, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, article)
}

// SummaryByID returns one stored summary
func (h *Handlers) SummaryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	summary, err := h.summaries.GetSummary(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, "summary", id, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, summary)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		core.HandleError(w, core.NewValidationError(fmt.Sprintf("invalid id %q", raw), err))
		return 0, false
	}
	return id, true
}

// handleLookupError passes application errors such as NOT_FOUND through and reports the rest as store failures
func (h *Handlers) handleLookupError(w http.ResponseWriter, kind string, id int64, err error) {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		core.HandleError(w, appErr)
		return
	}
	h.logger.Error("Failed to load "+kind, "id", id, "error", err)
	core.HandleError(w, core.NewDatabaseError("failed to load "+kind, err))
}

// Home renders today's picks as an HTML page
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	dateKey := services.DateKey(h.now(), h.location)

	posts, err := h.picks.ListTopPosts(r.Context(), dateKey)
	if err != nil {
		h.logger.Error("Failed to list picks for home page", "date", dateKey, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templ.Handler(HomePage(dateKey, posts)).ServeHTTP(w, r)
}
