package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// harvesting pipeline.
type Metrics struct {
	SourceAttempts   *prometheus.CounterVec // labels: source, outcome={success,failure}
	EntitiesHarvest  *prometheus.CounterVec // labels: outcome={success,failure}
	RecordsHarvested prometheus.Counter
	RowsDropped      prometheus.Counter
	FetchRetries     prometheus.Counter

	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge
	Running     prometheus.Gauge

	Uploads  *prometheus.CounterVec // labels: outcome={success,failure}
	Triggers *prometheus.CounterVec // labels: outcome={success,failure}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceAttempts,
		m.EntitiesHarvest,
		m.RecordsHarvested,
		m.RowsDropped,
		m.FetchRetries,
		m.RunDuration,
		m.LastSuccess,
		m.Running,
		m.Uploads,
		m.Triggers,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "source_attempts_total",
			Help:      "Fallback-chain source attempts by source id and outcome.",
		}, []string{"source", "outcome"}),
		EntitiesHarvest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "entities_harvested_total",
			Help:      "Entities processed per run by outcome.",
		}, []string{"outcome"}),
		RecordsHarvested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "records_harvested_total",
			Help:      "Total records accepted across all entities.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "rows_dropped_total",
			Help:      "Table rows rejected for column-count mismatch.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "fetch_retries_total",
			Help:      "HTTP fetch attempts beyond the first, across all sources.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_harvest",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete harvest-encode-publish run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_harvest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully published run.",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_harvest",
			Name:      "running",
			Help:      "1 while a harvest run is in progress.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "uploads_total",
			Help:      "Dataset uploads by outcome.",
		}, []string{"outcome"}),
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_harvest",
			Name:      "job_triggers_total",
			Help:      "Migration job trigger calls by outcome.",
		}, []string{"outcome"}),
	}
}
