package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	sq "github.com/Masterminds/squirrel"
)

const (
	maxTitleLength    = 250
	maxHashtagsLength = 120
)

// SummaryService reads persisted summaries. Summaries are written only
// together with their daily pick, see PickService.ReplaceDailyPicks.
type SummaryService struct {
	db     *core.Database
	logger *core.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(db *core.Database, logger *core.Logger) *SummaryService {
	return &SummaryService{
		db:     db,
		logger: logger,
	}
}

// GetSummary retrieves a summary by ID
func (s *SummaryService) GetSummary(ctx context.Context, id int64) (*models.Summary, error) {
	query, args, err := s.db.Builder().
		Select("id", "article_id", "title_vi", "bullets_json", "so_what_vn", "hashtags", "attribution", "url", "created_at").
		From("summaries").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary query: %w", err)
	}

	var summary models.Summary
	var bulletsJSON, hashtags string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.ID,
		&summary.ArticleID,
		&summary.TitleVI,
		&bulletsJSON,
		&summary.SoWhatVN,
		&hashtags,
		&summary.Attribution,
		&summary.URL,
		&summary.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("summary not found: %d", id), err)
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	summary.Bullets = decodeBullets(bulletsJSON)
	summary.Hashtags = splitHashtags(hashtags)
	return &summary, nil
}

// insertSummary writes one summary inside tx and returns its id
func insertSummary(ctx context.Context, tx *sql.Tx, b sq.StatementBuilderType, articleID int64, draft models.SummaryDraft, createdAt time.Time) (int64, error) {
	bullets, err := json.Marshal(draft.Bullets)
	if err != nil {
		return 0, fmt.Errorf("failed to encode bullets: %w", err)
	}

	query, args, err := b.
		Insert("summaries").
		Columns("article_id", "title_vi", "bullets_json", "so_what_vn", "hashtags", "attribution", "url", "created_at").
		Values(
			articleID,
			truncateRunes(draft.TitleVI, maxTitleLength),
			string(bullets),
			draft.SoWhatVN,
			truncateRunes(strings.Join(draft.Hashtags, ","), maxHashtagsLength),
			draft.Attribution,
			draft.URL,
			createdAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build summary insert: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert summary: %w", err)
	}
	return id, nil
}

func decodeBullets(raw string) []string {
	var bullets []string
	if err := json.Unmarshal([]byte(raw), &bullets); err != nil {
		return []string{}
	}
	if bullets == nil {
		return []string{}
	}
	return bullets
}

func splitHashtags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
