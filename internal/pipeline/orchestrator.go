package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
	"github.com/tanahair/water-harvest/internal/scrape"
)

// Fetcher performs one bounded-retry document fetch. Satisfied by
// scrape.Fetcher; tests substitute canned documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// harvestState enumerates the per-entity fallback machine. Sources are tried
// strictly in configured order; the first one producing records wins and
// later sources are never touched. No merging of rows across sources.
type harvestState int

const (
	statePending harvestState = iota
	stateTrying
	stateSucceeded
	stateFailed
)

// Harvester drives one entity through its data domain's ordered source chain.
type Harvester struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHarvester creates a Harvester over the given fetch collaborator.
func NewHarvester(fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Harvester {
	return &Harvester{fetcher: fetcher, logger: logger, metrics: metrics}
}

// HarvestEntity runs the fallback chain for one entity and always returns a
// result: success with the first source's records, or the per-source failure
// reasons after the chain is exhausted.
func (h *Harvester) HarvestEntity(ctx context.Context, dom domain.DataDomain, ent domain.Entity) domain.HarvestResult {
	result := domain.HarvestResult{Entity: ent}

	state := statePending
	next := 0

	for state != stateSucceeded && state != stateFailed {
		switch state {
		case statePending:
			state = stateTrying

		case stateTrying:
			if next >= len(dom.Sources) {
				state = stateFailed
				break
			}
			src := dom.Sources[next]
			next++

			records, dropped, err := h.trySource(ctx, src, ent)
			result.DroppedRows += dropped
			if err != nil {
				se := asStageError(err, src.ID)
				result.Attempts = append(result.Attempts, domain.Attempt{SourceID: src.ID, Err: se})
				h.metrics.SourceAttempts.WithLabelValues(src.ID, "failure").Inc()
				h.logger.Warn("source attempt failed",
					"state", ent.Code, "source", src.ID, "stage", se.Stage, "kind", se.Kind, "error", se.Err)
				if ctx.Err() != nil {
					state = stateFailed
				}
				break // stay in stateTrying with the next source
			}

			result.Records = records
			result.SourceUsed = src.ID
			result.Attempts = append(result.Attempts, domain.Attempt{SourceID: src.ID})
			h.metrics.SourceAttempts.WithLabelValues(src.ID, "success").Inc()
			h.logger.Info("source succeeded",
				"state", ent.Code, "source", src.ID, "records", len(records), "dropped_rows", dropped)
			state = stateSucceeded
		}
	}

	if state == stateFailed {
		h.logger.Error("all sources exhausted", "state", ent.Code, "reason", result.FailureReason())
	}
	return result
}

// trySource runs fetch→extract for one source. Zero usable records is a
// failure of the source (typed EmptyResult), not a zero-row success.
func (h *Harvester) trySource(ctx context.Context, src domain.Source, ent domain.Entity) ([]domain.Record, int, error) {
	code, ok := ent.SourceCode(src.ID)
	if !ok {
		return nil, 0, domain.NewStageError(domain.KindNotConfigured, domain.StageFetch, src.ID,
			errors.New("no source identifier configured for this state"))
	}

	body, err := h.fetcher.Fetch(ctx, src.RequestURL(code), src.QueryParams(code))
	if err != nil {
		return nil, 0, err
	}

	return scrape.Extract(body, src, ent)
}

// asStageError coerces any chain error into a typed stage error. Fetch errors
// carry their own kind; anything unclassified counts as transient.
func asStageError(err error, sourceID string) *domain.StageError {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se
	}
	var fe *scrape.FetchError
	if errors.As(err, &fe) {
		return domain.NewStageError(fe.Kind, domain.StageFetch, sourceID, fe)
	}
	return domain.NewStageError(domain.KindTransientNetwork, domain.StageFetch, sourceID, err)
}
