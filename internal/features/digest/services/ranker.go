package services

import (
	"math"
	"sort"
	"time"

	"ainews/internal/features/digest/models"
)

const (
	freshnessWeight = 0.6
	authorityWeight = 0.4

	// DefaultFreshnessTau is the decay constant of the freshness score
	DefaultFreshnessTau = 24 * time.Hour
)

// Ranker orders articles by freshness and source authority
type Ranker struct {
	lexicon *models.Lexicon
	tau     time.Duration
}

// NewRanker creates a ranker using the lexicon's authority table
func NewRanker(lexicon *models.Lexicon) *Ranker {
	return &Ranker{
		lexicon: lexicon,
		tau:     DefaultFreshnessTau,
	}
}

// Freshness returns exp(-age/tau) in [0,1]. A missing timestamp counts as now,
// and a timestamp in the future is treated as age zero.
func (r *Ranker) Freshness(published *time.Time, now time.Time) float64 {
	if published == nil || published.IsZero() {
		return 1
	}

	ageHours := now.Sub(*published).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return math.Exp(-ageHours / math.Max(1, r.tau.Hours()))
}

// Score computes 0.6*freshness + 0.4*authority for one article
func (r *Ranker) Score(article models.Article, now time.Time) models.ScoredArticle {
	f := r.Freshness(article.PublishedAt, now)
	w := r.lexicon.Authority(article.Source)
	return models.ScoredArticle{
		Article:   article,
		Freshness: f,
		Authority: w,
		Score:     freshnessWeight*f + authorityWeight*w,
	}
}

// Rank scores articles and sorts them by descending score. Equal scores keep
// their input order.
func (r *Ranker) Rank(articles []models.Article, now time.Time) []models.ScoredArticle {
	scored := make([]models.ScoredArticle, len(articles))
	for i, a := range articles {
		scored[i] = r.Score(a, now)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
