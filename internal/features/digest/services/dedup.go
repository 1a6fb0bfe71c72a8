package services

import (
	"context"
	"fmt"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

// DefaultDedupThreshold is the title similarity at or above which two articles are duplicates
const DefaultDedupThreshold = 90.0

// DedupStore is the article storage the deduplicator needs
type DedupStore interface {
	ListForDedup(ctx context.Context) ([]models.Article, error)
	DeleteArticles(ctx context.Context, ids []int64) (int, error)
}

// Deduplicator removes articles whose titles nearly match an earlier article
type Deduplicator struct {
	store     DedupStore
	threshold float64
	logger    *core.Logger
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(store DedupStore, threshold float64, logger *core.Logger) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultDedupThreshold
	}
	return &Deduplicator{
		store:     store,
		threshold: threshold,
		logger:    logger,
	}
}

// FindDuplicates compares every unordered pair of titles once and returns the ids to remove.
//
// Matching is pairwise, not transitive: in a chain A~B~C where A and C differ,
// only the items that match a kept item are removed. For each matching pair
// the lower id is kept. Items already marked are skipped and are
// never un-marked. All marks are decided before anything is deleted.
//
// This is O(n²) in the number of articles, which is fine for the few hundred
// a daily corpus holds but will not scale to tens of thousands.
func FindDuplicates(articles []models.Article, threshold float64) []int64 {
	marked := make(map[int64]bool)
	var drop []int64

	for i := 0; i < len(articles); i++ {
		if marked[articles[i].ID] {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			if marked[articles[j].ID] {
				continue
			}
			if TokenSetRatio(articles[i].Title, articles[j].Title) < threshold {
				continue
			}

			if articles[j].ID < articles[i].ID {
				// The left item lost, so it cannot mark anything further.
				marked[articles[i].ID] = true
				drop = append(drop, articles[i].ID)
				break
			}
			marked[articles[j].ID] = true
			drop = append(drop, articles[j].ID)
		}
	}

	return drop
}

// Run deduplicates the whole corpus and returns the removed ids
func (d *Deduplicator) Run(ctx context.Context) ([]int64, error) {
	articles, err := d.store.ListForDedup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles for dedup: %w", err)
	}

	drop := FindDuplicates(articles, d.threshold)
	if len(drop) == 0 {
		d.logger.Info("No duplicate articles", "compared", len(articles))
		return nil, nil
	}

	if _, err := d.store.DeleteArticles(ctx, drop); err != nil {
		return nil, fmt.Errorf("failed to delete duplicates: %w", err)
	}

	d.logger.Info("Removed duplicate articles", "compared", len(articles), "removed", len(drop))
	return drop, nil
}
