package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/encode"
	"github.com/tanahair/water-harvest/internal/observability"
)

// RecordPublisher streams harvested records to a broker. Optional; a nil
// publisher disables the stream without affecting upload or trigger.
type RecordPublisher interface {
	PublishDataset(ctx context.Context, ds domain.Dataset) error
}

// Params bundles the collaborators for a Pipeline.
type Params struct {
	Domain   domain.DataDomain
	Entities []domain.Entity
	Harvest  *Aggregator
	Uploader Uploader
	Trigger  JobTrigger // nil disables the migration trigger
	Records  RecordPublisher
	Interval time.Duration // 0 runs a single round
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Pipeline runs harvest rounds: scrape every entity, encode the dataset,
// upload it, then trigger the migration job.
type Pipeline struct {
	domain   domain.DataDomain
	entities []domain.Entity
	harvest  *Aggregator
	uploader Uploader
	trigger  JobTrigger
	records  RecordPublisher
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready atomic.Bool
}

// New creates a Pipeline from its parameters.
func New(p Params) *Pipeline {
	if p.Clock == nil {
		p.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		domain:   p.Domain,
		entities: p.Entities,
		harvest:  p.Harvest,
		uploader: p.Uploader,
		trigger:  p.Trigger,
		records:  p.Records,
		interval: p.Interval,
		clock:    p.Clock,
		logger:   p.Logger,
		metrics:  p.Metrics,
	}
}

// CheckReadiness reports whether at least one round has published
// successfully since startup.
func (p *Pipeline) CheckReadiness(context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dataset published yet")
	}
	return nil
}

// Run executes harvest rounds until the context is cancelled. With a zero
// interval it runs exactly one round and returns its error.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return p.RunOnce(ctx)
	}
	for {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("harvest round failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
}

// RunOnce performs a single harvest round. The round errors when the dataset
// cannot be encoded or uploaded; individual entity failures are reported in
// logs and metrics but do not fail the round.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	p.metrics.Running.Set(1)
	defer p.metrics.Running.Set(0)
	start := p.clock.Now()
	defer func() {
		p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	}()

	ds := p.harvest.HarvestEntities(ctx, p.domain, p.entities)
	for _, res := range ds.Failures() {
		p.logger.Warn("state harvest failed", "state", res.Entity.Code, "reason", res.FailureReason())
	}

	content, err := encode.Dataset(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	outcome := Publish(ctx, content, p.uploader, p.trigger, p.logger, p.metrics)
	if !outcome.Uploaded() {
		return fmt.Errorf("publish dataset: %w", outcome.UploadErr)
	}

	// Record streaming is best effort and only runs once the dataset is
	// safely in the object store.
	if p.records != nil {
		if err := p.records.PublishDataset(ctx, ds); err != nil {
			p.logger.Error("record stream publish failed", "error", err)
		}
	}

	p.ready.Store(true)
	p.metrics.LastSuccess.SetToCurrentTime()
	if outcome.TriggerErr != nil {
		return fmt.Errorf("trigger migration: %w", outcome.TriggerErr)
	}
	return nil
}
