package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	cdmadapter "github.com/tanahair/water-harvest/internal/adapter/cdm"
	httpadapter "github.com/tanahair/water-harvest/internal/adapter/http"
	kafkaadapter "github.com/tanahair/water-harvest/internal/adapter/kafka"
	"github.com/tanahair/water-harvest/internal/adapter/obs"
	"github.com/tanahair/water-harvest/internal/config"
	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
	"github.com/tanahair/water-harvest/internal/pipeline"
	"github.com/tanahair/water-harvest/internal/scrape"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	dom, _ := domain.DomainByName(cfg.DataDomain)
	entities, err := selectEntities(cfg.States)
	if err != nil {
		logger.Error("failed to resolve states", "error", err)
		os.Exit(1)
	}

	fetcher := scrape.NewFetcher(cfg.FetchTimeout, cfg.FetchMaxAttempts, logger, metrics)
	harvester := pipeline.NewHarvester(fetcher, logger, metrics)
	aggregator := pipeline.NewAggregator(harvester, cfg.Workers, logger, metrics)

	uploader, err := obs.NewClient(obs.Options{
		Endpoint:  cfg.OBSEndpoint,
		AccessKey: cfg.OBSAccessKey,
		SecretKey: cfg.OBSSecretKey,
		UseSSL:    cfg.OBSUseSSL,
		Bucket:    cfg.OBSBucket,
		Folder:    cfg.OBSFolder,
		Dataset:   dom.DatasetName,
	}, clock, logger)
	if err != nil {
		logger.Error("failed to build object store client", "error", err)
		os.Exit(1)
	}

	// Migration trigger is feature-flagged via the CDM_* credentials.
	var trigger pipeline.JobTrigger
	if cfg.TriggerEnabled() {
		trigger = cdmadapter.NewClient(cfg.CDMEndpoint, cfg.CDMProjectID, cfg.CDMClusterID,
			cfg.CDMJobName, cfg.CDMToken, cfg.CDMTimeout, logger)
		logger.Info("migration trigger enabled", "job", cfg.CDMJobName)
	} else {
		logger.Info("migration trigger disabled")
	}

	var records pipeline.RecordPublisher
	var writer *kafkaadapter.Writer
	if cfg.StreamEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaRecordsTopic, logger)
		records = writer
		logger.Info("record stream enabled", "topic", cfg.KafkaRecordsTopic)
	}

	p := pipeline.New(pipeline.Params{
		Domain:   dom,
		Entities: entities,
		Harvest:  aggregator,
		Uploader: uploader,
		Trigger:  trigger,
		Records:  records,
		Interval: cfg.HarvestInterval,
		Clock:    clock,
		Logger:   logger,
		Metrics:  metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Zero interval means a single harvest round, no HTTP surface.
	if cfg.HarvestInterval <= 0 {
		err := p.RunOnce(ctx)
		if writer != nil {
			if cerr := writer.Close(); cerr != nil {
				logger.Error("kafka writer close error", "error", cerr)
			}
		}
		if err != nil {
			logger.Error("harvest round failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// selectEntities resolves the configured state filter, defaulting to every
// known state.
func selectEntities(states []string) ([]domain.Entity, error) {
	registry := domain.NewRegistry()
	if len(states) == 0 {
		return registry.All(), nil
	}
	out := make([]domain.Entity, 0, len(states))
	for _, s := range states {
		ent, ok := registry.Resolve(s)
		if !ok {
			return nil, errors.New("unknown state " + s)
		}
		out = append(out, ent)
	}
	return out, nil
}
