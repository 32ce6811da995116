package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
)

// EntityHarvester harvests a single entity. Satisfied by Harvester.
type EntityHarvester interface {
	HarvestEntity(ctx context.Context, dom domain.DataDomain, ent domain.Entity) domain.HarvestResult
}

// Aggregator fans a list of entities over a bounded worker pool and collects
// exactly one HarvestResult per entity, in request order. One entity's
// failure never aborts the others.
type Aggregator struct {
	harvester EntityHarvester
	workers   int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewAggregator creates an Aggregator with the given pool size. Sizes below
// one collapse to sequential harvesting.
func NewAggregator(harvester EntityHarvester, workers int, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{harvester: harvester, workers: workers, logger: logger, metrics: metrics}
}

// HarvestAll harvests every entity and aggregates the results into a Dataset.
// Cancellation mid-run keeps results already collected; entities never
// started are reported as failed with a cancellation attempt.
func (a *Aggregator) HarvestAll(ctx context.Context, dom domain.DataDomain) domain.Dataset {
	return a.HarvestEntities(ctx, dom, domain.NewRegistry().All())
}

// HarvestEntities is HarvestAll over an explicit entity subset.
func (a *Aggregator) HarvestEntities(ctx context.Context, dom domain.DataDomain, entities []domain.Entity) domain.Dataset {
	results := make([]domain.HarvestResult, len(entities))

	type indexed struct {
		i   int
		res domain.HarvestResult
	}
	jobs := make(chan int)
	out := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- indexed{i: i, res: a.harvester.HarvestEntity(ctx, dom, entities[i])}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range entities {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	// Single collection point; results land at their request-order index.
	for r := range out {
		results[r.i] = r.res
	}

	// Entities the pool never reached before cancellation.
	for i := range results {
		if results[i].Entity.Code == "" {
			results[i] = domain.HarvestResult{
				Entity: entities[i],
				Attempts: []domain.Attempt{{
					SourceID: "none",
					Err: domain.NewStageError(domain.KindTransientNetwork, domain.StageFetch, "none",
						errors.New("run cancelled before this state was attempted")),
				}},
			}
		}
	}

	ds := domain.Dataset{
		Domain:      dom,
		Results:     results,
		GeneratedAt: domain.Now().UTC(),
	}
	for _, res := range results {
		if res.Succeeded() {
			ds.TotalRecords += len(res.Records)
			a.metrics.EntitiesHarvest.WithLabelValues("success").Inc()
			a.metrics.RecordsHarvested.Add(float64(len(res.Records)))
		} else {
			a.metrics.EntitiesHarvest.WithLabelValues("failure").Inc()
		}
		a.metrics.RowsDropped.Add(float64(res.DroppedRows))
	}

	a.logger.Info("harvest round complete",
		"domain", dom.Name,
		"states", len(entities),
		"succeeded", len(ds.Successes()),
		"failed", len(ds.Failures()),
		"records", ds.TotalRecords)
	return ds
}
