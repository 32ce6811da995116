package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/pipeline"
)

// stubHarvester returns a canned per-state result regardless of domain.
type stubHarvester struct {
	results map[string]domain.HarvestResult // keyed by entity code
	calls   atomic.Int64
}

func (s *stubHarvester) HarvestEntity(_ context.Context, _ domain.DataDomain, ent domain.Entity) domain.HarvestResult {
	s.calls.Add(1)
	if res, ok := s.results[ent.Code]; ok {
		res.Entity = ent
		return res
	}
	return domain.HarvestResult{
		Entity: ent,
		Attempts: []domain.Attempt{{
			SourceID: domain.SourceInfobanjirPage,
			Err: domain.NewStageError(domain.KindEmptyResult, domain.StageReconcile,
				domain.SourceInfobanjirPage, errors.New("no rows")),
		}},
	}
}

func successResult(records int) domain.HarvestResult {
	res := domain.HarvestResult{SourceUsed: domain.SourceInfobanjirPage}
	for i := 0; i < records; i++ {
		res.Records = append(res.Records, domain.Record{
			Fields: []domain.Field{{Column: "Bil.", Value: "1"}},
		})
	}
	return res
}

func entities(t *testing.T, codes ...string) []domain.Entity {
	t.Helper()
	out := make([]domain.Entity, 0, len(codes))
	for _, c := range codes {
		out = append(out, testEntity(t, c))
	}
	return out
}

func TestAggregator_CollectsInRequestOrder(t *testing.T) {
	stub := &stubHarvester{results: map[string]domain.HarvestResult{
		"JHR": successResult(3),
		"KDH": successResult(2),
		"PLS": {}, // falls through to the canned failure
		"SEL": successResult(5),
	}}

	agg := pipeline.NewAggregator(stub, 3, slog.Default(), newTestMetrics())
	ds := agg.HarvestEntities(context.Background(), testDomain(t, "waterlevel"),
		entities(t, "JHR", "KDH", "PLS", "SEL"))

	require.Len(t, ds.Results, 4)
	// Results sit at their request-order index no matter which worker ran them.
	assert.Equal(t, "JHR", ds.Results[0].Entity.Code)
	assert.Equal(t, "KDH", ds.Results[1].Entity.Code)
	assert.Equal(t, "PLS", ds.Results[2].Entity.Code)
	assert.Equal(t, "SEL", ds.Results[3].Entity.Code)

	assert.Equal(t, 10, ds.TotalRecords)
	assert.Len(t, ds.Successes(), 3)
	assert.Len(t, ds.Failures(), 1)
	assert.Equal(t, "PLS", ds.Failures()[0].Entity.Code)
	assert.Equal(t, int64(4), stub.calls.Load())
}

func TestAggregator_OneFailureDoesNotAbortOthers(t *testing.T) {
	stub := &stubHarvester{results: map[string]domain.HarvestResult{
		"JHR": successResult(1),
		"SEL": successResult(1),
	}}

	agg := pipeline.NewAggregator(stub, 1, slog.Default(), newTestMetrics())
	ds := agg.HarvestEntities(context.Background(), testDomain(t, "waterlevel"),
		entities(t, "JHR", "KDH", "SEL"))

	assert.Len(t, ds.Successes(), 2)
	require.Len(t, ds.Failures(), 1)
	assert.NotEmpty(t, ds.Failures()[0].FailureReason())
}

func TestAggregator_HarvestAllCoversEveryState(t *testing.T) {
	stub := &stubHarvester{results: map[string]domain.HarvestResult{}}

	agg := pipeline.NewAggregator(stub, 4, slog.Default(), newTestMetrics())
	ds := agg.HarvestAll(context.Background(), testDomain(t, "waterlevel"))

	assert.Len(t, ds.Results, 16)
	assert.Equal(t, int64(16), stub.calls.Load())
}

func TestAggregator_CancelledEntitiesReportFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubHarvester{results: map[string]domain.HarvestResult{"JHR": successResult(1)}}
	agg := pipeline.NewAggregator(stub, 1, slog.Default(), newTestMetrics())
	ds := agg.HarvestEntities(ctx, testDomain(t, "waterlevel"), entities(t, "JHR", "KDH"))

	// Whatever was not harvested still yields a result with a reason.
	require.Len(t, ds.Results, 2)
	for _, res := range ds.Results {
		if !res.Succeeded() {
			assert.NotEmpty(t, res.FailureReason())
		}
		assert.NotEmpty(t, res.Entity.Code)
	}
}
