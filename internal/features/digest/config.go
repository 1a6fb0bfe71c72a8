package digest

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

// Config represents digest feature configuration
type Config struct {
	core.DigestConfig
	Location *time.Location
}

// NewConfig creates digest config from core config
func NewConfig(coreConfig *core.Config) (*Config, error) {
	cfg := coreConfig.Features.Digest

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown timezone %q", cfg.Timezone), err)
	}

	c := &Config{DigestConfig: cfg, Location: loc}
	if err := c.Validate(); err != nil {
		return nil, core.NewConfigurationError("invalid digest configuration", err)
	}
	return c, nil
}

// Validate validates the digest configuration
func (c *Config) Validate() error {
	if c.DailyTopK < 1 || c.DailyTopK > 100 {
		return fmt.Errorf("daily top K must be between 1 and 100")
	}

	if c.DedupThreshold <= 0 || c.DedupThreshold > 100 {
		return fmt.Errorf("dedup threshold must be within (0,100]")
	}

	if c.RankWindow < c.DailyTopK {
		return fmt.Errorf("rank window must be at least daily top K")
	}

	if c.SummarizeCap < 1 {
		return fmt.Errorf("summarize cap must be positive")
	}

	if c.MinTextLength < 0 {
		return fmt.Errorf("min text length must not be negative")
	}

	if c.SummarizeDelay < 0 {
		return fmt.Errorf("summarize delay must not be negative")
	}

	if c.ExtractConcurrency < 1 || c.ExtractConcurrency > 64 {
		return fmt.Errorf("extract concurrency must be between 1 and 64")
	}

	if c.ExtractTimeout <= 0 {
		return fmt.Errorf("extract timeout must be positive")
	}

	if c.ScheduleEnabled && c.ScheduleInterval < time.Minute {
		return fmt.Errorf("schedule interval must be at least one minute")
	}

	return nil
}

// FetcherConfig returns the feed fetcher settings
func (c *Config) FetcherConfig() *models.FetcherConfig {
	return &models.FetcherConfig{
		UserAgent: c.UserAgent,
		Timeout:   30 * time.Second,
		Retries:   c.FetchRetries,
	}
}

// ExtractorConfig returns the page extractor settings
func (c *Config) ExtractorConfig() *models.ExtractorConfig {
	return &models.ExtractorConfig{
		UserAgent:      c.UserAgent,
		Timeout:        c.ExtractTimeout,
		MaxConcurrency: c.ExtractConcurrency,
		BatchSize:      c.ExtractBatch,
		MinTextLength:  c.MinTextLength,
	}
}

// PipelineConfig returns the limits applied by each run
func (c *Config) PipelineConfig() models.PipelineConfig {
	return models.PipelineConfig{
		DailyTopK:      c.DailyTopK,
		Location:       c.Location,
		DedupThreshold: c.DedupThreshold,
		RankWindow:     c.RankWindow,
		SummarizeCap:   c.SummarizeCap,
		MinTextLength:  c.MinTextLength,
		SummarizeDelay: c.SummarizeDelay,
	}
}

// SchedulerConfig returns the in-process scheduler settings
func (c *Config) SchedulerConfig() *models.SchedulerConfig {
	cfg := models.DefaultSchedulerConfig()
	cfg.Interval = c.ScheduleInterval
	return cfg
}
