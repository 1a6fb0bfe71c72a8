package models

import (
	"time"
)

// Article represents a news item keyed by its canonical URL
type Article struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at"`
	OGImage     string     `json:"og_image,omitempty"`
	ContentText string     `json:"content_text,omitempty"`
	Lang        string     `json:"lang,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
	SocialScore float64    `json:"social_score"`
	TopicTags   []string   `json:"topic_tags,omitempty"`
}

// HasText reports whether the extracted text is longer than minLength characters
func (a *Article) HasText(minLength int) bool {
	return len([]rune(a.ContentText)) > minLength
}

// ArticleCreate represents the data needed to ingest a new article
type ArticleCreate struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at"`
	TopicTags   []string   `json:"topic_tags"`
}

// ArticleContent is the result of extracting one article page
type ArticleContent struct {
	ArticleID   int64  `json:"article_id"`
	ContentText string `json:"content_text"`
	OGImage     string `json:"og_image"`
}

// ScoredArticle is an article with its ranking components
type ScoredArticle struct {
	Article
	Freshness float64 `json:"freshness"`
	Authority float64 `json:"authority"`
	Score     float64 `json:"score"`
}
