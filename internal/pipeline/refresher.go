package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/almadenlabs/covidlag/internal/adapter/cdph"
	"github.com/almadenlabs/covidlag/internal/adapter/snapshot"
	"github.com/almadenlabs/covidlag/internal/domain"
	"github.com/almadenlabs/covidlag/internal/observability"
)

const (
	datasetCases     = "cases"
	datasetHospitals = "hospitals"
)

// Source downloads the raw dataset files.
type Source interface {
	FetchCases(ctx context.Context) ([]byte, error)
	FetchHospitals(ctx context.Context) ([]byte, error)
}

// Archive persists raw payloads between runs so a refresh can survive an
// upstream outage.
type Archive interface {
	Save(dataset string, snap snapshot.Snapshot) error
	Load(dataset string) (snapshot.Snapshot, error)
}

// Feed publishes refreshed projections downstream.
type Feed interface {
	Publish(ctx context.Context, p domain.Projection) error
}

// Bundle is one immutable pair of parsed datasets. Refreshes build a new
// Bundle and swap it in whole, so readers never see a half-updated pair.
type Bundle struct {
	Cases        domain.CaseDataset
	Hospitals    domain.HospitalDataset
	Counties     []string
	FetchedAt    time.Time
	FromSnapshot bool
}

// RefresherConfig carries the settings the refresh loop needs.
type RefresherConfig struct {
	Interval     time.Duration
	CasesURL     string
	HospitalsURL string
	FeedCounty   string
	Analysis     domain.AnalysisOptions
}

// Refresher keeps the active Bundle current: fetch both files, fall back to
// snapshots, parse, swap, publish.
type Refresher struct {
	source  Source
	archive Archive
	feed    Feed
	cfg     RefresherConfig
	logger  *slog.Logger
	metrics *observability.Metrics

	bundle atomic.Pointer[Bundle]
	ready  atomic.Bool
}

// NewRefresher creates a Refresher. archive and feed may be nil when
// persistence or the projection feed is disabled.
func NewRefresher(source Source, archive Archive, feed Feed, cfg RefresherConfig, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		source:  source,
		archive: archive,
		feed:    feed,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Bundle returns the active dataset pair; ok is false before the first
// successful refresh.
func (r *Refresher) Bundle() (*Bundle, bool) {
	b := r.bundle.Load()
	return b, b != nil
}

// CheckReadiness returns nil once a dataset pair has been loaded, or an error
// describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no dataset loaded yet")
	}
	return nil
}

// Run executes the refresh loop until the context is cancelled. A failed
// refresh keeps the previous bundle and retries with backoff; a successful
// one sleeps out the configured interval.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.cfg.Interval)
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("refresher stopping", "reason", ctx.Err())
				return nil
			}
			r.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		if !sleepWithContext(ctx, r.cfg.Interval) {
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Refresh runs one fetch-parse-swap cycle.
func (r *Refresher) Refresh(ctx context.Context) error {
	casesPayload, casesAt, casesFromSnap, err := r.acquire(ctx, datasetCases, r.source.FetchCases, r.cfg.CasesURL)
	if err != nil {
		return err
	}
	hospPayload, hospAt, hospFromSnap, err := r.acquire(ctx, datasetHospitals, r.source.FetchHospitals, r.cfg.HospitalsURL)
	if err != nil {
		return err
	}

	cases, err := cdph.LoadCases(casesPayload)
	if err != nil {
		return fmt.Errorf("parse cases: %w", err)
	}
	hospitals, err := cdph.LoadHospitals(hospPayload)
	if err != nil {
		return fmt.Errorf("parse hospitals: %w", err)
	}

	fetchedAt := casesAt
	if hospAt.Before(fetchedAt) {
		fetchedAt = hospAt
	}
	bundle := &Bundle{
		Cases:        cases,
		Hospitals:    hospitals,
		Counties:     domain.CommonCounties(cases, hospitals),
		FetchedAt:    fetchedAt,
		FromSnapshot: casesFromSnap || hospFromSnap,
	}

	r.bundle.Store(bundle)
	r.ready.Store(true)

	r.metrics.DatasetRows.WithLabelValues(datasetCases).Set(float64(len(cases)))
	r.metrics.DatasetRows.WithLabelValues(datasetHospitals).Set(float64(len(hospitals)))
	r.metrics.CountiesTracked.Set(float64(len(bundle.Counties)))
	r.metrics.DataAgeSeconds.Set(time.Since(fetchedAt).Seconds())

	r.logger.Info("dataset refreshed",
		"case_rows", len(cases),
		"hospital_rows", len(hospitals),
		"counties", len(bundle.Counties),
		"fetched_at", fetchedAt,
		"from_snapshot", bundle.FromSnapshot)

	r.publishFeed(ctx, bundle)
	return nil
}

// acquire fetches one dataset, persisting it on success and falling back to
// the stored snapshot on failure. The returned bool marks a snapshot serve.
func (r *Refresher) acquire(ctx context.Context, dataset string, fetch func(context.Context) ([]byte, error), url string) ([]byte, time.Time, bool, error) {
	start := time.Now()
	payload, err := fetch(ctx)
	if err == nil {
		r.metrics.FetchRequests.WithLabelValues(dataset, "success").Inc()
		r.metrics.FetchDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())

		now := time.Now().UTC()
		if r.archive != nil {
			saveErr := r.archive.Save(dataset, snapshot.Snapshot{
				FetchedAt: now,
				SourceURL: url,
				Payload:   payload,
			})
			if saveErr != nil {
				r.logger.Warn("snapshot save failed", "dataset", dataset, "error", saveErr)
			} else {
				r.metrics.SnapshotSaves.Inc()
			}
		}
		return payload, now, false, nil
	}

	r.metrics.FetchRequests.WithLabelValues(dataset, "error").Inc()
	if ctx.Err() != nil {
		return nil, time.Time{}, false, err
	}
	r.logger.Warn("fetch failed", "dataset", dataset, "error", err)

	if r.archive == nil {
		return nil, time.Time{}, false, err
	}
	snap, loadErr := r.archive.Load(dataset)
	if loadErr != nil {
		if !errors.Is(loadErr, snapshot.ErrNotFound) {
			r.logger.Warn("snapshot load failed", "dataset", dataset, "error", loadErr)
		}
		return nil, time.Time{}, false, err
	}

	r.metrics.SnapshotLoads.Inc()
	r.logger.Info("serving dataset from snapshot",
		"dataset", dataset, "fetched_at", snap.FetchedAt)
	return snap.Payload, snap.FetchedAt, true, nil
}

// publishFeed sends the feed county's projections downstream. Failures are
// counted and logged, never fatal to the refresh.
func (r *Refresher) publishFeed(ctx context.Context, bundle *Bundle) {
	if r.feed == nil {
		return
	}

	county := r.cfg.FeedCounty
	if !containsCounty(bundle.Counties, county) {
		r.logger.Warn("feed county not in dataset", "county", county)
		return
	}

	for _, outcome := range domain.Outcomes() {
		params, err := domain.DefaultParams(outcome)
		if err != nil {
			continue
		}
		p, err := domain.BuildProjection(bundle.Cases, bundle.Hospitals, county, outcome, params, r.cfg.Analysis)
		if err != nil {
			r.logger.Warn("feed projection failed", "county", county, "outcome", outcome, "error", err)
			r.metrics.FeedErrors.Inc()
			continue
		}
		if err := r.feed.Publish(ctx, p); err != nil {
			r.logger.Error("feed publish failed", "county", county, "outcome", outcome, "error", err)
			r.metrics.FeedErrors.Inc()
			continue
		}
		r.metrics.FeedPublished.Inc()
	}
}

func containsCounty(counties []string, county string) bool {
	for _, c := range counties {
		if c == county {
			return true
		}
	}
	return false
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
