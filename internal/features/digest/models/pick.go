package models

import (
	"time"
)

// DailyPick is a ranked slot for a calendar date
type DailyPick struct {
	ID        int64     `json:"id"`
	DateKey   string    `json:"date"`
	Rank      int       `json:"rank"`
	ArticleID int64     `json:"article_id"`
	SummaryID int64     `json:"summary_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PickCandidate is an article selected for a slot together with its summary
type PickCandidate struct {
	Article ScoredArticle
	Summary SummaryDraft
}

// TopPost is a daily pick joined with its summary and article for the read API
type TopPost struct {
	Rank        int      `json:"rank"`
	TitleVI     string   `json:"title_vi"`
	Bullets     []string `json:"bullets"`
	SoWhatVN    string   `json:"so_what_vn"`
	Hashtags    []string `json:"hashtags"`
	Attribution string   `json:"attribution"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	OGImage     string   `json:"og_image,omitempty"`
}

// DailyPicksResponse is the read API payload for one date
type DailyPicksResponse struct {
	Date     string    `json:"date"`
	TopPosts []TopPost `json:"top_posts"`
}
