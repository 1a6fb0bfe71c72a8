package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	sq "github.com/Masterminds/squirrel"
)

const deleteChunkSize = 500

var articleColumns = []string{
	"id", "url", "title", "source", "published_at", "og_image",
	"content_text", "lang", "fetched_at", "social_score", "topic_tags",
}

// ArticleService handles article persistence
type ArticleService struct {
	db     *core.Database
	logger *core.Logger
}

// NewArticleService creates a new article service
func NewArticleService(db *core.Database, logger *core.Logger) *ArticleService {
	return &ArticleService{
		db:     db,
		logger: logger,
	}
}

// CreateArticles inserts articles, silently skipping any whose URL already exists.
// It returns the number of rows actually inserted.
func (s *ArticleService) CreateArticles(ctx context.Context, articles []models.ArticleCreate, fetchedAt time.Time) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	fetchedAt = fetchedAt.UTC().Truncate(time.Second)
	inserted := 0

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, a := range articles {
			published := fetchedAt
			if a.PublishedAt != nil && !a.PublishedAt.IsZero() {
				published = a.PublishedAt.UTC().Truncate(time.Second)
			}

			query, args, err := s.db.Builder().
				Insert("articles").
				Columns("url", "title", "source", "published_at", "fetched_at", "social_score", "topic_tags").
				Values(a.URL, a.Title, a.Source, published, fetchedAt, 0.0, nullString(strings.Join(a.TopicTags, ","))).
				Suffix("ON CONFLICT (url) DO NOTHING").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build article insert: %w", err)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to insert article %s: %w", a.URL, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Stored articles", "candidates", len(articles), "inserted", inserted)
	return inserted, nil
}

// GetArticle retrieves an article by ID
func (s *ArticleService) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	query, args, err := s.db.Builder().
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("article not found: %d", id), err)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// ListRecent returns up to limit articles, newest publication first
func (s *ArticleService) ListRecent(ctx context.Context, limit int) ([]models.Article, error) {
	return s.list(ctx, s.db.Builder().
		Select(articleColumns...).
		From("articles").
		OrderBy("published_at DESC NULLS LAST", "id DESC").
		Limit(uint64(limit)))
}

// ListMissingContent returns up to limit of the most recent articles without extracted text
func (s *ArticleService) ListMissingContent(ctx context.Context, limit int) ([]models.Article, error) {
	return s.list(ctx, s.db.Builder().
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"content_text": nil}).
		OrderBy("fetched_at DESC", "id DESC").
		Limit(uint64(limit)))
}

// ListForDedup returns every article ordered by id ascending
func (s *ArticleService) ListForDedup(ctx context.Context) ([]models.Article, error) {
	return s.list(ctx, s.db.Builder().
		Select(articleColumns...).
		From("articles").
		OrderBy("id ASC"))
}

// UpdateContent stores extracted text and hero images. An empty image keeps the stored one.
func (s *ArticleService) UpdateContent(ctx context.Context, contents []models.ArticleContent) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	updated := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, c := range contents {
			query, args, err := s.db.Builder().
				Update("articles").
				Set("content_text", nullString(c.ContentText)).
				Set("og_image", sq.Expr("COALESCE(?, og_image)", nullString(c.OGImage))).
				Where(sq.Eq{"id": c.ArticleID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build content update: %w", err)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to update article %d: %w", c.ArticleID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				updated += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Updated article content", "count", updated)
	return updated, nil
}

// DeleteArticles removes the given articles in one transaction
func (s *ArticleService) DeleteArticles(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += deleteChunkSize {
			end := min(start+deleteChunkSize, len(ids))

			query, args, err := s.db.Builder().
				Delete("articles").
				Where(sq.Eq{"id": ids[start:end]}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build article delete: %w", err)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to delete articles: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				deleted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Deleted articles", "count", deleted)
	return deleted, nil
}

func (s *ArticleService) list(ctx context.Context, b sq.SelectBuilder) ([]models.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}

	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var publishedAt sql.NullTime
	var ogImage, content, lang, tags sql.NullString

	err := row.Scan(
		&article.ID,
		&article.URL,
		&article.Title,
		&article.Source,
		&publishedAt,
		&ogImage,
		&content,
		&lang,
		&article.FetchedAt,
		&article.SocialScore,
		&tags,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		article.PublishedAt = &t
	}
	article.OGImage = ogImage.String
	article.ContentText = content.String
	article.Lang = lang.String
	if tags.String != "" {
		article.TopicTags = strings.Split(tags.String, ",")
	}

	return &article, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
