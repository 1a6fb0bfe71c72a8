package models

import (
	"time"
)

// FetcherConfig holds configuration for the feed fetcher
type FetcherConfig struct {
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
	Retries   int           `json:"retries"`
}

// ExtractorConfig holds configuration for article text extraction
type ExtractorConfig struct {
	UserAgent      string        `json:"user_agent"`
	Timeout        time.Duration `json:"timeout"`
	MaxConcurrency int           `json:"max_concurrency"`
	BatchSize      int           `json:"batch_size"`
	MinTextLength  int           `json:"min_text_length"`
}

// PipelineConfig holds the limits applied by one pipeline run
type PipelineConfig struct {
	DailyTopK      int            `json:"daily_top_k"`
	Location       *time.Location `json:"-"`
	DedupThreshold float64        `json:"dedup_threshold"`
	RankWindow     int            `json:"rank_window"`
	SummarizeCap   int            `json:"summarize_cap"`
	MinTextLength  int            `json:"min_text_length"`
	SummarizeDelay time.Duration  `json:"summarize_delay"`
}

// DefaultPipelineConfig returns the limits used when nothing is configured
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DailyTopK:      10,
		Location:       time.UTC,
		DedupThreshold: 90,
		RankWindow:     120,
		SummarizeCap:   50,
		MinTextLength:  200,
		SummarizeDelay: 2 * time.Second,
	}
}
