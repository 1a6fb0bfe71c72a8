package services

import (
	"context"
	"slices"
	"testing"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

func TestFindDuplicatesKeepsLowerID(t *testing.T) {
	articles := []models.Article{
		{ID: 1, Title: "OpenAI releases GPT-5 model"},
		{ID: 2, Title: "GPT-5 model: OpenAI releases"},
		{ID: 3, Title: "DeepMind publishes robotics paper"},
	}

	drop := FindDuplicates(articles, DefaultDedupThreshold)
	if !slices.Equal(drop, []int64{2}) {
		t.Errorf("Expected [2], got %v", drop)
	}
}

func TestFindDuplicatesIsPairwise(t *testing.T) {
	// A~B and B~C but A and C are far apart: only B goes, C survives.
	articles := []models.Article{
		{ID: 1, Title: "alpha beta gamma"},
		{ID: 2, Title: "alpha beta gamma delta"},
		{ID: 3, Title: "beta gamma delta"},
	}

	drop := FindDuplicates(articles, 90)
	if !slices.Equal(drop, []int64{2}) {
		t.Errorf("Expected only [2] to be dropped, got %v", drop)
	}
}

func TestFindDuplicatesIdenticalTitles(t *testing.T) {
	articles := []models.Article{
		{ID: 4, Title: "Meta AI open-sources a new LLM"},
		{ID: 7, Title: "Meta AI open-sources a new LLM"},
		{ID: 9, Title: "Meta AI open-sources a new LLM"},
	}

	drop := FindDuplicates(articles, DefaultDedupThreshold)
	if !slices.Equal(drop, []int64{7, 9}) {
		t.Errorf("Expected [7 9] to be dropped, got %v", drop)
	}
}

func TestFindDuplicatesUnsortedInput(t *testing.T) {
	articles := []models.Article{
		{ID: 3, Title: "same headline about agents"},
		{ID: 1, Title: "same headline about agents"},
		{ID: 2, Title: "same headline about agents"},
	}

	drop := FindDuplicates(articles, DefaultDedupThreshold)
	slices.Sort(drop)
	if !slices.Equal(drop, []int64{2, 3}) {
		t.Errorf("Expected each loser once and id 1 kept, got %v", drop)
	}
}

func TestFindDuplicatesEmpty(t *testing.T) {
	if drop := FindDuplicates(nil, 90); len(drop) != 0 {
		t.Errorf("Expected nothing to drop, got %v", drop)
	}
}

func TestDeduplicatorRun(t *testing.T) {
	db := newTestDB(t)
	logger := core.NewDiscardLogger()
	store := NewArticleService(db, logger)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := store.CreateArticles(ctx, []models.ArticleCreate{
		{URL: "https://a.example.com/1", Title: "Anthropic launches new agent toolkit", Source: "Anthropic"},
		{URL: "https://b.example.com/1", Title: "anthropic launches new agent toolkit", Source: "TechCrunch AI"},
		{URL: "https://c.example.com/1", Title: "Microsoft Research on diffusion", Source: "Microsoft Research"},
	}, now); err != nil {
		t.Fatalf("CreateArticles failed: %v", err)
	}

	removed, err := NewDeduplicator(store, 0, logger).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("Expected 1 removal, got %v", removed)
	}

	remaining, err := store.ListForDedup(ctx)
	if err != nil {
		t.Fatalf("ListForDedup failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 remaining articles, got %d", len(remaining))
	}
	if remaining[0].Source != "Anthropic" {
		t.Errorf("Expected the earlier article to survive, got %s", remaining[0].Source)
	}

	removed, err = NewDeduplicator(store, 0, logger).Run(ctx)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("Expected a second run to remove nothing, got %v", removed)
	}
}

func TestDeduplicatorRunIdenticalTitles(t *testing.T) {
	db := newTestDB(t)
	logger := core.NewDiscardLogger()
	store := NewArticleService(db, logger)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := store.CreateArticles(ctx, []models.ArticleCreate{
		{URL: "https://a.example.com/gpt", Title: "OpenAI ships a GPT update", Source: "OpenAI Blog"},
		{URL: "https://b.example.com/gpt", Title: "OpenAI ships a GPT update", Source: "TechCrunch AI"},
		{URL: "https://c.example.com/gpt", Title: "OpenAI ships a GPT update", Source: "Wired AI"},
	}, now); err != nil {
		t.Fatalf("CreateArticles failed: %v", err)
	}

	removed, err := NewDeduplicator(store, 0, logger).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Expected 2 removals, got %v", removed)
	}

	remaining, err := store.ListForDedup(ctx)
	if err != nil {
		t.Fatalf("ListForDedup failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 surviving article, got %d", len(remaining))
	}
	for _, id := range removed {
		if id <= remaining[0].ID {
			t.Errorf("Expected the lowest id %d to survive, but removed %d", remaining[0].ID, id)
		}
	}
	if remaining[0].Source != "OpenAI Blog" {
		t.Errorf("Expected the first stored article to survive, got %s", remaining[0].Source)
	}
}
