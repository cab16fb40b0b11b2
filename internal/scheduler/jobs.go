package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/finatlas/finatlas/internal/collector"
	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/service"
)

// Snapshotter persists a point-in-time export of store statistics and
// collection status. Implemented by the S3 snapshot store; nil disables the
// export.
type Snapshotter interface {
	WriteSnapshot(ctx context.Context, stats domain.StoreStats, status domain.CollectionStatus) error
}

// Intervals carries the per-job refresh intervals.
type Intervals struct {
	Exchanges   time.Duration
	Rates       time.Duration
	Banks       time.Duration
	Discovery   time.Duration
	Maintenance time.Duration
}

// RegisterJobs wires the standard job set: per-source refreshes, weekly
// discovery and daily maintenance.
func RegisterJobs(s *Scheduler, col *collector.Collector, indexer *service.Indexer, store service.VectorStore, snapshots Snapshotter, intervals Intervals) {
	s.AddJob(&Job{
		ID:       "update_exchanges",
		Name:     "Update exchange rates and listings",
		Interval: intervals.Exchanges,
		Run:      refreshSource(col, indexer, "exchanges"),
	})
	s.AddJob(&Job{
		ID:       "update_rates",
		Name:     "Update Venezuela market rates",
		Interval: intervals.Rates,
		Run:      refreshSource(col, indexer, "venezuela"),
	})
	s.AddJob(&Job{
		ID:       "update_banks",
		Name:     "Refresh bank directory",
		Interval: intervals.Banks,
		Run:      refreshSource(col, indexer, "banks"),
	})
	s.AddJob(&Job{
		ID:       "discover_entities",
		Name:     "Discover new entities across all sources",
		Interval: intervals.Discovery,
		Run:      discover(col, indexer),
	})
	s.AddJob(&Job{
		ID:       "maintenance",
		Name:     "Store maintenance and snapshot export",
		Interval: intervals.Maintenance,
		Run:      maintenance(col, store, snapshots),
	})
}

// refreshSource re-collects one source and re-indexes everything it
// returned. Existing entries are overwritten so refreshed rates and
// descriptions land in the store.
func refreshSource(col *collector.Collector, indexer *service.Indexer, sourceID string) JobFunc {
	return func(ctx context.Context) error {
		entities, err := col.CollectSource(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("collecting %s: %w", sourceID, err)
		}
		count, err := indexer.IndexEntities(ctx, entities)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", sourceID, err)
		}
		log.Printf("refreshed source %s: %d entities indexed", sourceID, count)
		return nil
	}
}

// discover collects every source and indexes only entities not yet in the
// store. Known entities are left untouched so discovery stays cheap.
func discover(col *collector.Collector, indexer *service.Indexer) JobFunc {
	return func(ctx context.Context) error {
		entities := col.CollectAll(ctx)
		count, err := indexer.IndexNew(ctx, entities)
		if err != nil {
			return fmt.Errorf("indexing discovered entities: %w", err)
		}
		log.Printf("discovery run complete: %d new entities indexed", count)
		return nil
	}
}

// maintenance logs store statistics and, when a snapshot store is
// configured, exports a snapshot of stats and collection status.
func maintenance(col *collector.Collector, store service.VectorStore, snapshots Snapshotter) JobFunc {
	return func(ctx context.Context) error {
		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}
		log.Printf("maintenance: store %s holds %d entries", stats.Name, stats.Count)

		if snapshots == nil {
			return nil
		}
		if err := snapshots.WriteSnapshot(ctx, *stats, col.Status()); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		return nil
	}
}
