// Package admin contains the finatlasd commands that run against the
// database directly: serve, collect, stats and reset.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/finatlas/finatlas/internal/collector"
	"github.com/finatlas/finatlas/internal/config"
	openaiclient "github.com/finatlas/finatlas/internal/openai"
	"github.com/finatlas/finatlas/internal/repository"
	"github.com/finatlas/finatlas/internal/service"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	openailib "github.com/sashabaranov/go-openai"
)

// app bundles the wired services shared by the admin commands.
type app struct {
	cfg  *config.Config
	pool *pgxpool.Pool

	store     *repository.EntityRepository
	collector *collector.Collector

	// nil when OPENAI_API_KEY is not configured.
	ai        *openaiclient.Client
	indexer   *service.Indexer
	retriever *service.Retriever
}

func newApp(ctx context.Context, migrateDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	if migrateDB {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a := &app{
		cfg:       cfg,
		pool:      pool,
		store:     repository.NewEntityRepository(pool, cfg.VectorDimensions),
		collector: newCollector(),
	}

	if cfg.HasOpenAI() {
		a.ai = openaiclient.NewClientWithConfig(openaiclient.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      openailib.EmbeddingModel(cfg.OpenAIEmbeddingModel),
			EmbeddingDimensions: cfg.VectorDimensions,
			ChatModel:           cfg.OpenAIModel,
			MaxTokens:           cfg.OpenAIMaxTokens,
			Temperature:         cfg.OpenAITemperature,
		})

		normalizer := service.NewNormalizer(cfg.Countries(), cfg.Types())
		processor := service.NewProcessor(normalizer, a.ai, service.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		})
		a.indexer = service.NewIndexer(processor, a.store)
		a.retriever = service.NewRetriever(a.store, a.ai, a.ai, service.RetrieverConfig{
			MinSimilarityScore: cfg.MinSimilarityScore,
			DefaultLimit:       cfg.DefaultSearchLimit,
			MaxLimit:           cfg.MaxSearchLimit,
		})
	}

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func newCollector() *collector.Collector {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return collector.New(
		collector.NewBankSource(),
		collector.NewExchangeSource(httpClient),
		collector.NewRemittanceSource(),
		collector.NewVenezuelaSource(collector.NewBCVScraper(httpClient, "Mozilla/5.0 (compatible; finatlas/1.0)")),
	)
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
