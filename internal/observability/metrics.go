package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset refresher, the analysis endpoints, and the projection feed.
type Metrics struct {
	// Dataset refresh metrics.
	FetchRequests    *prometheus.CounterVec   // labels: dataset={cases,hospitals}, result={success,error}
	FetchDuration    *prometheus.HistogramVec // labels: dataset={cases,hospitals}
	SnapshotSaves    prometheus.Counter
	SnapshotLoads    prometheus.Counter
	DatasetRows      *prometheus.GaugeVec // labels: dataset={cases,hospitals}
	DataAgeSeconds   prometheus.Gauge
	RefresherRunning prometheus.Gauge

	// Analysis metrics.
	CountiesTracked     prometheus.Gauge
	ProjectionsComputed *prometheus.CounterVec // labels: outcome={deaths,icu,non_icu}
	ProjectionDuration  prometheus.Histogram
	ProjectionCache     *prometheus.CounterVec // labels: result={hit,miss}

	// Projection feed metrics.
	FeedPublished prometheus.Counter
	FeedErrors    prometheus.Counter
	FeedEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "fetch_requests_total",
			Help:      "Source CSV fetches by dataset and result.",
		}, []string{"dataset", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covidlag",
			Name:      "fetch_duration_seconds",
			Help:      "Source CSV fetch-and-parse duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"dataset"}),
		SnapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "snapshot_saves_total",
			Help:      "Dataset snapshots persisted to the local store.",
		}),
		SnapshotLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "snapshot_loads_total",
			Help:      "Dataset snapshots served in place of a failed fetch.",
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "covidlag",
			Name:      "dataset_rows",
			Help:      "Rows in the active dataset by source file.",
		}, []string{"dataset"}),
		DataAgeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidlag",
			Name:      "data_age_seconds",
			Help:      "Seconds since the active dataset was fetched.",
		}),
		RefresherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidlag",
			Name:      "refresher_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		CountiesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidlag",
			Name:      "counties_tracked",
			Help:      "Counties present in both source files.",
		}),
		ProjectionsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "projections_computed_total",
			Help:      "Projection computations by outcome.",
		}, []string{"outcome"}),
		ProjectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covidlag",
			Name:      "projection_duration_seconds",
			Help:      "Duration of a single county projection computation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ProjectionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "projection_cache_total",
			Help:      "Projection cache lookups by result.",
		}, []string{"result"}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "feed_published_total",
			Help:      "Projection summaries written to the feed topic.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidlag",
			Name:      "feed_errors_total",
			Help:      "Failed feed publishes.",
		}),
		FeedEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidlag",
			Name:      "feed_enabled",
			Help:      "1 when the projection feed is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.SnapshotSaves,
		m.SnapshotLoads,
		m.DatasetRows,
		m.DataAgeSeconds,
		m.RefresherRunning,
		m.CountiesTracked,
		m.ProjectionsComputed,
		m.ProjectionDuration,
		m.ProjectionCache,
		m.FeedPublished,
		m.FeedErrors,
		m.FeedEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covidlag", Name: "fetch_requests_total"}, []string{"dataset", "result"}),
		FetchDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "covidlag", Name: "fetch_duration_seconds"}, []string{"dataset"}),
		SnapshotSaves:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covidlag", Name: "snapshot_saves_total"}),
		SnapshotLoads:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covidlag", Name: "snapshot_loads_total"}),
		DatasetRows:         prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "covidlag", Name: "dataset_rows"}, []string{"dataset"}),
		DataAgeSeconds:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covidlag", Name: "data_age_seconds"}),
		RefresherRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covidlag", Name: "refresher_running"}),
		CountiesTracked:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covidlag", Name: "counties_tracked"}),
		ProjectionsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covidlag", Name: "projections_computed_total"}, []string{"outcome"}),
		ProjectionDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covidlag", Name: "projection_duration_seconds"}),
		ProjectionCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covidlag", Name: "projection_cache_total"}, []string{"result"}),
		FeedPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covidlag", Name: "feed_published_total"}),
		FeedErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covidlag", Name: "feed_errors_total"}),
		FeedEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covidlag", Name: "feed_enabled"}),
	}
}
