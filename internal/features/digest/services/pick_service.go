package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	sq "github.com/Masterminds/squirrel"
)

// PickService owns the daily_picks table
type PickService struct {
	db     *core.Database
	logger *core.Logger
}

// NewPickService creates a new pick service
func NewPickService(db *core.Database, logger *core.Logger) *PickService {
	return &PickService{
		db:     db,
		logger: logger,
	}
}

// ReplaceDailyPicks deletes the picks stored for dateKey and writes one summary
// and one pick per candidate, ranked in slice order starting at 1. Everything
// happens in a single transaction, so readers see either the old or the new set.
func (s *PickService) ReplaceDailyPicks(ctx context.Context, dateKey string, candidates []models.PickCandidate, now time.Time) (int, error) {
	createdAt := now.UTC().Truncate(time.Second)
	b := s.db.Builder()

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query, args, err := b.Delete("daily_picks").Where(sq.Eq{"date_key": dateKey}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build pick delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete picks for %s: %w", dateKey, err)
		}

		for i, c := range candidates {
			summaryID, err := insertSummary(ctx, tx, b, c.Article.ID, c.Summary, createdAt)
			if err != nil {
				return err
			}

			query, args, err := b.
				Insert("daily_picks").
				Columns("date_key", "rank", "article_id", "summary_id", "created_at").
				Values(dateKey, i+1, c.Article.ID, summaryID, createdAt).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build pick insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert pick %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Replaced daily picks", "date", dateKey, "count", len(candidates))
	return len(candidates), nil
}

// ListPicks returns the picks stored for dateKey ordered by rank
func (s *PickService) ListPicks(ctx context.Context, dateKey string) ([]models.DailyPick, error) {
	query, args, err := s.db.Builder().
		Select("id", "date_key", "rank", "article_id", "summary_id", "created_at").
		From("daily_picks").
		Where(sq.Eq{"date_key": dateKey}).
		OrderBy("rank ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pick query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DailyPick
	for rows.Next() {
		var p models.DailyPick
		if err := rows.Scan(&p.ID, &p.DateKey, &p.Rank, &p.ArticleID, &p.SummaryID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, p)
	}

	return picks, rows.Err()
}

// ListTopPosts returns the picks for dateKey joined with their summary and article.
// No picks yields an empty, non-nil slice.
func (s *PickService) ListTopPosts(ctx context.Context, dateKey string) ([]models.TopPost, error) {
	query, args, err := s.db.Builder().
		Select("p.rank", "s.title_vi", "s.bullets_json", "s.so_what_vn", "s.hashtags", "s.attribution", "a.source", "a.url", "a.og_image").
		From("daily_picks p").
		Join("summaries s ON s.id = p.summary_id").
		Join("articles a ON a.id = p.article_id").
		Where(sq.Eq{"p.date_key": dateKey}).
		OrderBy("p.rank ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top posts query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list top posts: %w", err)
	}
	defer rows.Close()

	posts := []models.TopPost{}
	for rows.Next() {
		var p models.TopPost
		var bulletsJSON, hashtags string
		var ogImage sql.NullString
		if err := rows.Scan(&p.Rank, &p.TitleVI, &bulletsJSON, &p.SoWhatVN, &hashtags, &p.Attribution, &p.Source, &p.URL, &ogImage); err != nil {
			return nil, fmt.Errorf("failed to scan top post: %w", err)
		}
		p.Bullets = decodeBullets(bulletsJSON)
		p.Hashtags = splitHashtags(hashtags)
		p.OGImage = ogImage.String
		posts = append(posts, p)
	}

	return posts, rows.Err()
}
