package main

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/analysis"
	"github.com/newslens-inc/newslens-engine/pkg/config"
	"github.com/newslens-inc/newslens-engine/pkg/database"
	"github.com/newslens-inc/newslens-engine/pkg/extraction"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
	"github.com/newslens-inc/newslens-engine/pkg/retry"
	"github.com/newslens-inc/newslens-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("extractor_provider", cfg.Extractor.Provider),
		zap.Float64("similarity_threshold", cfg.Tracking.SimilarityThreshold))

	ctx := context.Background()

	// Migrations run over database/sql; the engine itself uses pgxpool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	extractor, err := extraction.NewExtractor(&extraction.Config{
		Provider: cfg.Extractor.Provider,
		Endpoint: cfg.Extractor.Endpoint,
		Model:    cfg.Extractor.Model,
		APIKey:   cfg.Extractor.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create extractor", zap.Error(err))
	}

	entityRepo := repositories.NewCanonicalEntityRepository(db)
	mentionRepo := repositories.NewEntityMentionRepository(db)
	articleRepo := repositories.NewArticleRepository(db)
	profileRepo := repositories.NewEntityProfileRepository(db)

	resolver := services.NewResolverService(entityRepo, cfg.Tracking.SimilarityThreshold, logger)
	recorder := services.NewMentionService(analysis.NewContextAnalyzer(), resolver, mentionRepo, logger)
	aggregator := services.NewAggregationService(entityRepo, mentionRepo, cfg.Tracking.RelationshipWindowDays, logger)
	profiles := services.NewProfileService(entityRepo, mentionRepo, profileRepo, aggregator, logger)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Extractor.MaxRetries

	tracker := services.NewTrackingService(extractor, recorder, articleRepo, retryCfg, logger)

	result, err := tracker.ProcessArticleBatch(ctx, cfg.Tracking.BatchStatusFilter)
	if err != nil {
		logger.Fatal("Batch processing failed", zap.Error(err))
	}

	// Refresh derived profiles for every entity the batch touched.
	for _, entityID := range result.EntityIDs {
		if _, err := profiles.Rebuild(ctx, entityID); err != nil {
			logger.Warn("Profile rebuild failed",
				zap.String("entity_id", entityID.String()),
				zap.Error(err))
		}
	}

	logger.Info("Tracking run finished",
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Int("entities_touched", len(result.EntityIDs)))
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
