package services

import (
	"net/url"
	"strings"

	"ainews/internal/features/digest/models"
)

// Normalizer filters feed entries by topic and canonicalizes their URLs
type Normalizer struct {
	keywords         []string
	trackingPrefixes []string
	hostAliases      map[string]string
}

// NewNormalizer creates a normalizer from the lexicon
func NewNormalizer(lexicon *models.Lexicon) *Normalizer {
	n := &Normalizer{
		hostAliases: make(map[string]string, len(lexicon.HostAliases)),
	}
	for _, k := range lexicon.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			n.keywords = append(n.keywords, k)
		}
	}
	for _, p := range lexicon.TrackingPrefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			n.trackingPrefixes = append(n.trackingPrefixes, p)
		}
	}
	for from, to := range lexicon.HostAliases {
		n.hostAliases[strings.ToLower(from)] = strings.ToLower(to)
	}
	return n
}

// IsRelevant reports whether the entry has a title and link and the title mentions a keyword
func (n *Normalizer) IsRelevant(title, link string) bool {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(link) == "" {
		return false
	}
	return len(n.MatchedKeywords(title)) > 0
}

// MatchedKeywords returns the keywords found in title, as case-insensitive substrings
func (n *Normalizer) MatchedKeywords(title string) []string {
	t := strings.ToLower(title)
	var matched []string
	for _, k := range n.keywords {
		if strings.Contains(t, k) {
			matched = append(matched, k)
		}
	}
	return matched
}

// maxNormalizePasses bounds the fixed-point loop in NormalizeURL
const maxNormalizePasses = 8

// NormalizeURL strips tracking parameters, merges alias hosts and removes trailing slashes.
// The result is stable: normalizing it again returns the same string.
func (n *Normalizer) NormalizeURL(raw string) string {
	out := n.normalizeOnce(raw)
	// Trimming can expose an empty fragment or query marker, so repeat until nothing changes.
	for i := 0; i < maxNormalizePasses; i++ {
		next := n.normalizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n *Normalizer) normalizeOnce(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return trimTrailing(raw)
	}

	u.Host = strings.ToLower(u.Host)
	if alias, ok := n.hostAliases[u.Host]; ok {
		u.Host = alias
	}

	if u.RawQuery != "" {
		u.RawQuery = n.stripTracking(u.RawQuery)
	}
	if u.RawQuery == "" {
		u.ForceQuery = false
	}
	if u.Fragment == "" {
		u.RawFragment = ""
	}

	return trimTrailing(u.String())
}

func trimTrailing(s string) string {
	for {
		trimmed := strings.TrimSpace(strings.TrimRight(s, "/"))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// stripTracking drops tracking parameters and keeps the rest in their original order and encoding
func (n *Normalizer) stripTracking(rawQuery string) string {
	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if n.isTracking(key) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}

func (n *Normalizer) isTracking(key string) bool {
	key = strings.ToLower(key)
	for _, p := range n.trackingPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Normalize turns a raw feed entry into an article to ingest, or reports false when it is not relevant
func (n *Normalizer) Normalize(entry models.RawEntry) (models.ArticleCreate, bool) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if !n.IsRelevant(title, link) {
		return models.ArticleCreate{}, false
	}

	return models.ArticleCreate{
		URL:         n.NormalizeURL(link),
		Title:       title,
		Source:      entry.Source,
		PublishedAt: entry.PublishedAt,
		TopicTags:   n.MatchedKeywords(title),
	}, true
}
