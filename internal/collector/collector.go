// Package collector fans out to independent external data sources and
// aggregates whatever subset of them succeeds.
package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
)

// Source is a single external provider of raw entity records. A source
// either returns its full batch or fails for the run.
type Source interface {
	ID() string
	Fetch(ctx context.Context) ([]domain.Entity, error)
}

// Collector runs every registered source concurrently, isolating failures
// so one broken provider never cancels its siblings.
type Collector struct {
	sources []Source

	mu             sync.Mutex
	status         map[string]string
	total          int
	lastCollection time.Time
}

// New creates a Collector over the given sources.
func New(sources ...Source) *Collector {
	return &Collector{
		sources: sources,
		status:  make(map[string]string),
	}
}

// CollectAll fetches from every source in parallel and returns the union of
// all batches that succeeded. Per-source outcomes are recorded in the
// collection status.
func (c *Collector) CollectAll(ctx context.Context) []domain.Entity {
	var wg sync.WaitGroup
	results := make([][]domain.Entity, len(c.sources))

	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			entities, err := src.Fetch(ctx)
			if err != nil {
				log.Printf("collection from %s failed: %v", src.ID(), err)
				c.recordStatus(src.ID(), fmt.Sprintf("error: %v", err))
				return
			}
			results[i] = entities
			c.recordStatus(src.ID(), domain.SourceStatusSuccess)
		}(i, src)
	}
	wg.Wait()

	var all []domain.Entity
	for _, batch := range results {
		all = append(all, batch...)
	}

	c.mu.Lock()
	c.total = len(all)
	c.lastCollection = time.Now().UTC()
	c.mu.Unlock()

	log.Printf("collected %d total entities from %d sources", len(all), len(c.sources))
	return all
}

// CollectSource fetches from a single source for a targeted refresh.
func (c *Collector) CollectSource(ctx context.Context, sourceID string) ([]domain.Entity, error) {
	for _, src := range c.sources {
		if src.ID() != sourceID {
			continue
		}
		entities, err := src.Fetch(ctx)
		if err != nil {
			c.recordStatus(sourceID, fmt.Sprintf("error: %v", err))
			return nil, err
		}
		c.recordStatus(sourceID, domain.SourceStatusSuccess)
		return entities, nil
	}
	return nil, domain.ErrSourceNotFound
}

// Sources returns the ids of all registered sources.
func (c *Collector) Sources() []string {
	ids := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		ids = append(ids, src.ID())
	}
	return ids
}

// Status reports the outcome of the last collection run. Safe to call
// concurrently with collection.
func (c *Collector) Status() domain.CollectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	sources := make(map[string]string, len(c.status))
	for k, v := range c.status {
		sources[k] = v
	}
	return domain.CollectionStatus{
		TotalEntities:  c.total,
		Sources:        sources,
		LastCollection: c.lastCollection,
	}
}

func (c *Collector) recordStatus(sourceID, status string) {
	c.mu.Lock()
	c.status[sourceID] = status
	c.mu.Unlock()
}
