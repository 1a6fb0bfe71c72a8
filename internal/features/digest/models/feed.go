package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedSource is one configured feed
type FeedSource struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// FeedList is the on-disk shape of the feed source file
type FeedList struct {
	Feeds []FeedSource `yaml:"feeds"`
}

// RawEntry is a feed item before normalization
type RawEntry struct {
	Title       string
	Link        string
	Source      string
	PublishedAt *time.Time
	Categories  []string
}

// DefaultFeedSources returns the feeds used when no feed file exists
func DefaultFeedSources() []FeedSource {
	return []FeedSource{
		{Name: "OpenAI Blog", URL: "https://openai.com/news/rss.xml"},
		{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
		{Name: "DeepMind", URL: "https://deepmind.google/blog/rss.xml"},
		{Name: "Microsoft Research", URL: "https://www.microsoft.com/en-us/research/feed/"},
		{Name: "MIT News - AI", URL: "https://news.mit.edu/rss/topic/artificial-intelligence2"},
		{Name: "IEEE Spectrum AI", URL: "https://spectrum.ieee.org/feeds/topic/artificial-intelligence.rss"},
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
		{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
		{Name: "Wired AI", URL: "https://www.wired.com/feed/tag/ai/latest/rss"},
	}
}

// LoadFeedSources reads the feed list at path, falling back to the defaults when the file is absent
func LoadFeedSources(path string) ([]FeedSource, error) {
	if path == "" {
		return DefaultFeedSources(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultFeedSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	return ParseFeedSources(data)
}

// ParseFeedSources decodes a YAML feed list and drops entries without a URL
func ParseFeedSources(data []byte) ([]FeedSource, error) {
	var list FeedList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse feeds: %w", err)
	}

	feeds := make([]FeedSource, 0, len(list.Feeds))
	for _, f := range list.Feeds {
		f.URL = strings.TrimSpace(f.URL)
		if f.URL == "" {
			continue
		}
		f.Name = strings.TrimSpace(f.Name)
		feeds = append(feeds, f)
	}

	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}
	return feeds, nil
}
