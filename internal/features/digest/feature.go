package digest

import (
	"context"
	"fmt"

	"ainews/internal/core"
	"ainews/internal/features/digest/handlers"
	"ainews/internal/features/digest/migrations"
	"ainews/internal/features/digest/models"
	"ainews/internal/features/digest/services"
)

// Feature represents the daily AI news digest
type Feature struct {
	*core.BaseFeature
	config           *Config
	migrationMgr     *migrations.Manager
	gemini           *services.GeminiStrategy
	schedulerService *services.SchedulerService
	handlers         *handlers.Handlers
}

// NewFeature wires the digest services. Feeds and lexicon are read from disk
// here, and providers without credentials are left out of the summarizer.
func NewFeature(ctx context.Context, logger *core.Logger, db *core.Database, config *Config) (*Feature, error) {
	log := logger.ForFeature("digest")

	feeds, err := models.LoadFeedSources(config.FeedsPath)
	if err != nil {
		return nil, core.NewConfigurationError("failed to load feed sources", err)
	}

	lexicon, err := models.LoadLexicon(config.LexiconPath)
	if err != nil {
		return nil, core.NewConfigurationError("failed to load lexicon", err)
	}

	// Create services
	articleService := services.NewArticleService(db, log)
	pickService := services.NewPickService(db, log)
	fetcherService := services.NewFetcherService(log, config.FetcherConfig())
	extractorService := services.NewExtractorService(log, config.ExtractorConfig())
	ingestService := services.NewIngestService(feeds, fetcherService, services.NewNormalizer(lexicon), articleService, log)

	// Summarizer chain
	openAI := services.NewOpenAIStrategy(config.OpenAIAPIKey, config.OpenAIModel, config.OutputLang)
	gemini, err := services.NewGeminiStrategy(ctx, config.GoogleAPIKey, config.GeminiModel, config.OutputLang)
	if err != nil {
		return nil, core.NewConfigurationError("failed to create Gemini client", err)
	}
	summarizer := services.NewSummarizer(log, openAI, gemini)
	log.Info("Summarizer chain ready", "providers", summarizer.Providers())

	deps := services.PipelineDeps{
		Store:      db,
		Ingester:   ingestService,
		Articles:   articleService,
		Extractor:  extractorService,
		Dedup:      services.NewDeduplicator(articleService, config.DedupThreshold, log),
		Ranker:     services.NewRanker(lexicon),
		Summarizer: summarizer,
		Picks:      pickService,
	}

	publisher, err := services.NewTelegramPublisher(config.TelegramToken, config.TelegramChatID, log)
	if err != nil {
		log.Warn("Telegram publisher disabled", "error", err)
	} else if publisher != nil {
		deps.Publisher = publisher
	}

	base := core.NewBaseFeature("digest", "Daily AI News Digest", config.Enabled, logger, db)
	pipeline := services.NewPipeline(deps, config.PipelineConfig(), config.ExtractBatch, log)
	runner := statsRunner{pipeline: pipeline, db: base.DB()}

	feature := &Feature{
		BaseFeature:      base,
		config:           config,
		migrationMgr:     migrations.NewManager(db, log),
		gemini:           gemini,
		schedulerService: services.NewSchedulerService(runner, log, config.SchedulerConfig()),
		handlers: handlers.NewHandlers(log, pickService, articleService,
			services.NewSummaryService(db, log), config.Location),
	}

	return feature, nil
}

// Init runs migrations and starts the scheduler when it is enabled
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.Migrate(ctx); err != nil {
		return err
	}

	if f.config.ScheduleEnabled {
		if err := f.schedulerService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start digest scheduler: %w", err)
		}
		f.Logger().Info("Digest scheduler started")
	}

	f.Logger().Info("Digest feature initialized successfully")
	return nil
}

// Routes returns the HTTP routes for the digest feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: "GET", Path: "/", Handler: f.handlers.Home},
		{Method: "GET", Path: "/api/picks/today", Handler: f.handlers.TodayPicks},
		{Method: "GET", Path: "/api/picks/{date}", Handler: f.handlers.PicksByDate},
		{Method: "GET", Path: "/api/articles/{id}", Handler: f.handlers.ArticleByID},
		{Method: "GET", Path: "/api/summaries/{id}", Handler: f.handlers.SummaryByID},
	}
}

// Migrate applies pending digest migrations
func (f *Feature) Migrate(ctx context.Context) error {
	return f.migrationMgr.Migrate(ctx)
}

// RunPipeline runs the pipeline once, waiting for any scheduled run to finish first
func (f *Feature) RunPipeline(ctx context.Context) (*models.RunReport, error) {
	return f.schedulerService.RunNow(ctx)
}

// Shutdown gracefully shuts down the digest feature
func (f *Feature) Shutdown(ctx context.Context) error {
	if f.config.ScheduleEnabled {
		if err := f.schedulerService.Stop(ctx); err != nil {
			f.Logger().Error("Failed to stop digest scheduler", "error", err)
		}
	}

	if err := f.gemini.Close(); err != nil {
		f.Logger().Error("Failed to close Gemini client", "error", err)
	}

	return f.BaseFeature.Shutdown(ctx)
}

// GetMigrationManager returns the migration manager for this feature
func (f *Feature) GetMigrationManager() *migrations.Manager {
	return f.migrationMgr
}

// statsRunner logs connection pool stats after every run
type statsRunner struct {
	pipeline *services.Pipeline
	db       *core.Database
}

func (r statsRunner) Run(ctx context.Context) (*models.RunReport, error) {
	report, err := r.pipeline.Run(ctx)
	r.db.LogStats()
	return report, err
}
