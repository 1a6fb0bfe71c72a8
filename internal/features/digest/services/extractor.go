package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

const minParagraphLength = 20

var contentSelectors = []string{
	"article p",
	".article p",
	".post-content p",
	".entry-content p",
	".content p",
	"main p",
	"#content p",
	"p",
}

// ExtractorService pulls readable text and the hero image out of article pages
type ExtractorService struct {
	client *http.Client
	logger *core.Logger
	config *models.ExtractorConfig
}

// NewExtractorService creates a new extractor service
func NewExtractorService(logger *core.Logger, config *models.ExtractorConfig) *ExtractorService {
	return &ExtractorService{
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
		config: config,
	}
}

// ExtractPage fetches one page and returns its body text and og:image
func (e *ExtractorService) ExtractPage(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	return extractText(doc), extractOGImage(doc), nil
}

// ExtractArticles extracts every article concurrently with a bounded number of
// requests in flight. Pages that fail or carry too little text are skipped.
func (e *ExtractorService) ExtractArticles(ctx context.Context, articles []models.Article) []models.ArticleContent {
	var (
		mu      sync.Mutex
		results []models.ArticleContent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.config.MaxConcurrency, 1))

	for _, article := range articles {
		article := article
		g.Go(func() error {
			text, image, err := e.ExtractPage(gctx, article.URL)
			if err != nil {
				e.logger.Debug("Extraction failed", "article_id", article.ID, "url", article.URL, "error", err)
				return nil
			}

			content := models.ArticleContent{ArticleID: article.ID, OGImage: image}
			if len([]rune(text)) > e.config.MinTextLength {
				content.ContentText = text
			}
			if content.ContentText == "" && content.OGImage == "" {
				return nil
			}

			mu.Lock()
			results = append(results, content)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	for _, selector := range contentSelectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if len(text) > minParagraphLength {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			return strings.Join(paragraphs, "\n\n")
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

func extractOGImage(doc *goquery.Document) string {
	for _, selector := range []string{`meta[property="og:image"]`, `meta[name="og:image"]`, `meta[name="twitter:image"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}
