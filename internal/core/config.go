package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for the news digest service
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Log      LogConfig      `json:"log"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"-"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `json:"level"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Digest DigestConfig `json:"digest"`
}

// DigestConfig contains the daily digest pipeline configuration
type DigestConfig struct {
	Enabled     bool   `json:"enabled"`
	FeedsPath   string `json:"feeds_path"`
	LexiconPath string `json:"lexicon_path"`

	OpenAIAPIKey string `json:"-"`
	OpenAIModel  string `json:"openai_model"`
	GoogleAPIKey string `json:"-"`
	GeminiModel  string `json:"gemini_model"`
	OutputLang   string `json:"output_lang"`

	DailyTopK      int           `json:"daily_top_k"`
	Timezone       string        `json:"timezone"`
	DedupThreshold float64       `json:"dedup_threshold"`
	RankWindow     int           `json:"rank_window"`
	SummarizeCap   int           `json:"summarize_cap"`
	MinTextLength  int           `json:"min_text_length"`
	SummarizeDelay time.Duration `json:"summarize_delay"`

	ExtractTimeout     time.Duration `json:"extract_timeout"`
	ExtractConcurrency int           `json:"extract_concurrency"`
	ExtractBatch       int           `json:"extract_batch"`
	FetchRetries       int           `json:"fetch_retries"`
	UserAgent          string        `json:"user_agent"`

	ScheduleEnabled  bool          `json:"schedule_enabled"`
	ScheduleInterval time.Duration `json:"schedule_interval"`

	TelegramToken  string `json:"-"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("AINEWS_PORT", 8000),
			Host: getEnvOrDefault("AINEWS_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("AINEWS_DB_DRIVER", string(DialectSQLite)),
			DSN:    getEnvOrDefault("AINEWS_DB_DSN", "file:./data/ai_news.db?_pragma=foreign_keys(1)&_time_format=sqlite"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("AINEWS_LOG_LEVEL", "info"),
		},
		Features: FeatureConfig{
			Digest: DigestConfig{
				Enabled:     getEnvAsBool("AINEWS_ENABLE_DIGEST", true),
				FeedsPath:   getEnvOrDefault("AINEWS_FEEDS_PATH", "./configs/feeds.yaml"),
				LexiconPath: getEnvOrDefault("AINEWS_LEXICON_PATH", "./configs/lexicon.yaml"),

				OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
				OpenAIModel:  getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
				GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
				GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
				OutputLang:   getEnvOrDefault("OUTPUT_LANG", "tiếng Việt"),

				DailyTopK:      getEnvAsInt("DAILY_TOP_K", 10),
				Timezone:       getEnvOrDefault("TIMEZONE", "Asia/Ho_Chi_Minh"),
				DedupThreshold: getEnvAsFloat("AINEWS_DEDUP_THRESHOLD", 90),
				RankWindow:     getEnvAsInt("AINEWS_RANK_WINDOW", 120),
				SummarizeCap:   getEnvAsInt("AINEWS_SUMMARIZE_CAP", 50),
				MinTextLength:  getEnvAsInt("AINEWS_MIN_TEXT_LENGTH", 200),
				SummarizeDelay: getEnvAsDuration("AINEWS_SUMMARIZE_DELAY", 2*time.Second),

				ExtractTimeout:     getEnvAsDuration("AINEWS_EXTRACT_TIMEOUT", 20*time.Second),
				ExtractConcurrency: getEnvAsInt("AINEWS_EXTRACT_CONCURRENCY", 8),
				ExtractBatch:       getEnvAsInt("AINEWS_EXTRACT_BATCH", 200),
				FetchRetries:       getEnvAsInt("AINEWS_FETCH_RETRIES", 3),
				UserAgent:          getEnvOrDefault("AINEWS_USER_AGENT", "AINewsDigest/1.0"),

				ScheduleEnabled:  getEnvAsBool("AINEWS_SCHEDULE_ENABLED", false),
				ScheduleInterval: getEnvAsDuration("AINEWS_SCHEDULE_INTERVAL", 24*time.Hour),

				TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
				TelegramChatID: getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := ParseDialect(c.Database.Driver); err != nil {
		return err
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "digest":
		return c.Features.Digest.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1500ms", "24h") or bare seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
