package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finatlas/finatlas/internal/api/handlers"
	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/scheduler"
	"github.com/finatlas/finatlas/internal/server"
	"github.com/finatlas/finatlas/internal/service"
	"github.com/finatlas/finatlas/internal/storage"
	"github.com/finatlas/finatlas/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the finatlas API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, !noMigrate)
	if err != nil {
		return err
	}
	defer a.Close()

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		a.cfg.Port = portFlag
	}

	var snapshots scheduler.Snapshotter
	if a.cfg.HasS3() {
		snapStore, err := storage.NewSnapshotStore(ctx, storage.SnapshotStoreConfig{
			Endpoint:        a.cfg.S3Endpoint,
			Region:          a.cfg.S3Region,
			AccessKeyID:     a.cfg.S3AccessKey,
			SecretAccessKey: a.cfg.S3SecretKey,
			Bucket:          a.cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create snapshot store: %w", err)
		}
		if err := snapStore.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure snapshot bucket: %w", err)
		}
		log.Printf("snapshot bucket '%s' ready", a.cfg.S3Bucket)
		snapshots = snapStore
	}

	sched := scheduler.New(a.cfg.SchedulerEnabled, a.cfg.SchedulerTimezone)

	var retrieverSvc handlers.RetrieverService
	var indexerSvc handlers.IndexerService
	if a.retriever != nil {
		retrieverSvc = a.retriever
		indexerSvc = a.indexer

		scheduler.RegisterJobs(sched, a.collector, a.indexer, a.store, snapshots, scheduler.Intervals{
			Exchanges:   time.Duration(a.cfg.UpdateExchangesInterval) * time.Second,
			Rates:       time.Duration(a.cfg.UpdateRatesInterval) * time.Second,
			Banks:       time.Duration(a.cfg.UpdateBanksInterval) * time.Second,
			Discovery:   time.Duration(a.cfg.DiscoveryInterval) * time.Second,
			Maintenance: time.Duration(a.cfg.MaintenanceInterval) * time.Second,
		})
		sched.Start(ctx)
	} else {
		log.Println("OPENAI_API_KEY not set: search endpoints and scheduled jobs are disabled")
		retrieverSvc = &noOpRetriever{}
		indexerSvc = &noOpIndexer{}
	}

	searchHandler := handlers.NewSearchHandler(retrieverSvc)
	adminHandler := handlers.NewAdminHandler(ctx, a.collector, indexerSvc, sched, a.store)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: searchHandler,
		AdminHandler:  adminHandler,
	})

	srv := &http.Server{
		Addr:    ":" + a.cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if sched.IsRunning() {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

var errNoProvider = domain.NewDomainError(domain.ErrCodeGateway, "embedding provider not configured: OPENAI_API_KEY required")

type noOpRetriever struct{}

func (r *noOpRetriever) Search(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]service.SearchResult, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) Ask(ctx context.Context, question string, contextLimit int) (*service.Answer, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) Compare(ctx context.Context, fromCountry, toCountry string, amount float64) (*service.Comparison, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) GetEntityByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) GetEntitiesByCountry(ctx context.Context, countryCode string, limit int) ([]service.SearchResult, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) GetEntitiesByType(ctx context.Context, entityType string, limit int) ([]service.SearchResult, error) {
	return nil, errNoProvider
}

func (r *noOpRetriever) SuggestSimilar(ctx context.Context, entityID string, limit int) ([]service.SearchResult, error) {
	return nil, errNoProvider
}

type noOpIndexer struct{}

func (i *noOpIndexer) IndexEntities(ctx context.Context, entities []domain.Entity) (int, error) {
	return 0, errNoProvider
}
