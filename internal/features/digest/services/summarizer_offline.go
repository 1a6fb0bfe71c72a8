package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ainews/internal/features/digest/models"
)

const (
	offlineTitlePrefix = "[TÓM TẮT]"
	offlineSoWhat      = "Gợi ý: xem khả năng ứng dụng tại VN (doanh nghiệp/giáo dục/chính sách)."
	placeholderBullet  = "(Không trích được nội dung)"
	baseHashtag        = "#AInews"

	offlineTitleRunes = 80
	offlineBullets    = 4
	offlineKeywords   = 5
	offlineTags       = 3
)

var (
	keywordPattern = regexp.MustCompile(`[a-z]{3,}`)

	stopwords = map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "if": true,
		"then": true, "else": true, "for": true, "to": true, "of": true, "in": true, "on": true,
		"at": true, "by": true, "with": true, "about": true, "as": true, "is": true, "are": true,
		"was": true, "were": true, "be": true, "been": true, "being": true, "this": true,
		"that": true, "it": true, "its": true, "from": true, "into": true, "over": true,
		"under": true, "after": true, "before": true, "between": true, "within": true,
		"without": true, "we": true, "you": true, "they": true, "their": true, "our": true,
		"i": true, "he": true, "she": true, "them": true, "his": true, "her": true, "my": true,
		"me": true, "us": true,
	}
)

// OfflineStrategy builds an extractive summary without calling any provider
type OfflineStrategy struct{}

func NewOfflineStrategy() *OfflineStrategy {
	return &OfflineStrategy{}
}

func (o *OfflineStrategy) Name() string {
	return "offline"
}

// Summarize never fails
func (o *OfflineStrategy) Summarize(_ context.Context, in models.SummaryInput) (*models.SummaryDraft, error) {
	bullets := Sentences(in.Content)
	if len(bullets) > offlineBullets {
		bullets = bullets[:offlineBullets]
	}
	if len(bullets) == 0 {
		bullets = []string{placeholderBullet}
	}

	hashtags := []string{baseHashtag}
	keywords := TopKeywords(in.Title+" "+in.Content, offlineKeywords)
	for i := 0; i < len(keywords) && i < offlineTags; i++ {
		hashtags = append(hashtags, "#"+capitalize(keywords[i]))
	}

	return &models.SummaryDraft{
		TitleVI:     offlineTitlePrefix + " " + truncateRunes(in.Title, offlineTitleRunes),
		Bullets:     bullets,
		SoWhatVN:    offlineSoWhat,
		Hashtags:    hashtags,
		Attribution: in.Source,
		URL:         in.URL,
	}, nil
}

// Sentences collapses whitespace and splits after '.', '!' or '?' followed by a space
func Sentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 1; i < len(text); i++ {
		if text[i] != ' ' {
			continue
		}
		switch text[i-1] {
		case '.', '!', '?':
			out = append(out, text[start:i])
			start = i + 1
		}
	}
	return append(out, text[start:])
}

// TopKeywords returns the n most frequent words of three or more ASCII letters
// that are not stopwords. Ties keep first-seen order.
func TopKeywords(text string, n int) []string {
	words := keywordPattern.FindAllString(asciiLower(text), -1)

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// asciiLower lowercases ASCII letters only, so the keyword pattern sees the
// same letters a plain [A-Za-z] match would.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
