package models

import (
	"time"
)

// SummaryDraft is the structured summary produced by a summarizer strategy
type SummaryDraft struct {
	TitleVI     string   `json:"title_vi"`
	Bullets     []string `json:"bullets"`
	SoWhatVN    string   `json:"so_what_vn"`
	Hashtags    []string `json:"hashtags"`
	Attribution string   `json:"attribution"`
	URL         string   `json:"url"`
}

// Summary is a persisted summary tied to one article
type Summary struct {
	ID        int64 `json:"id"`
	ArticleID int64 `json:"article_id"`
	SummaryDraft
	CreatedAt time.Time `json:"created_at"`
}

// SummaryInput is what a summarizer needs to know about an article
type SummaryInput struct {
	URL     string
	Title   string
	Source  string
	Content string
}
