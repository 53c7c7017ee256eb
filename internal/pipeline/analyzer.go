package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/almadenlabs/covidlag/internal/domain"
	"github.com/almadenlabs/covidlag/internal/observability"
)

var (
	// ErrNoData is returned before the first successful refresh.
	ErrNoData = errors.New("no dataset loaded")

	// ErrUnknownCounty is returned for counties absent from either source
	// file.
	ErrUnknownCounty = errors.New("unknown county")
)

// BundleProvider hands out the active dataset pair.
type BundleProvider interface {
	Bundle() (*Bundle, bool)
}

// Analyzer answers read queries against the active bundle.
type Analyzer struct {
	provider BundleProvider
	opts     domain.AnalysisOptions
	cache    *projectionCache
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAnalyzer creates an Analyzer over the given bundle provider. A
// cacheSize of zero or less disables projection caching.
func NewAnalyzer(provider BundleProvider, opts domain.AnalysisOptions, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	a := &Analyzer{
		provider: provider,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
	if cacheSize > 0 {
		a.cache = newProjectionCache(cacheSize)
	}
	return a
}

// Counties lists the counties present in both source files.
func (a *Analyzer) Counties() ([]string, error) {
	bundle, ok := a.provider.Bundle()
	if !ok {
		return nil, ErrNoData
	}
	return bundle.Counties, nil
}

// CaseHistory returns the reported and smoothed case series for a county.
func (a *Analyzer) CaseHistory(county string) (domain.CaseHistory, error) {
	bundle, err := a.county(county)
	if err != nil {
		return domain.CaseHistory{}, err
	}
	return domain.BuildCaseHistory(bundle.Cases, county, a.opts)
}

// Projection computes one projection for a county, outcome, and parameter
// pair. Results are cached per bundle, so dashboard slider moves that revisit
// a parameter pair skip the recompute.
func (a *Analyzer) Projection(county string, outcome domain.Outcome, params domain.Params) (domain.Projection, error) {
	bundle, err := a.county(county)
	if err != nil {
		return domain.Projection{}, err
	}

	key := cacheKey(county, outcome, params)
	if a.cache != nil {
		if p, ok := a.cache.get(bundle, key); ok {
			a.metrics.ProjectionCache.WithLabelValues("hit").Inc()
			return p, nil
		}
		a.metrics.ProjectionCache.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	p, err := domain.BuildProjection(bundle.Cases, bundle.Hospitals, county, outcome, params, a.opts)
	if err != nil {
		return domain.Projection{}, err
	}
	a.metrics.ProjectionsComputed.WithLabelValues(string(outcome)).Inc()
	a.metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
	if a.cache != nil {
		a.cache.put(bundle, key, p)
	}
	return p, nil
}

// Summaries computes the default-parameter summary for every outcome.
func (a *Analyzer) Summaries(county string) ([]domain.Summary, error) {
	summaries := make([]domain.Summary, 0, len(domain.Outcomes()))
	for _, outcome := range domain.Outcomes() {
		params, err := domain.DefaultParams(outcome)
		if err != nil {
			return nil, err
		}
		p, err := a.Projection(county, outcome, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", outcome, err)
		}
		summaries = append(summaries, p.Summary)
	}
	return summaries, nil
}

// county resolves the active bundle and verifies county membership.
func (a *Analyzer) county(county string) (*Bundle, error) {
	bundle, ok := a.provider.Bundle()
	if !ok {
		return nil, ErrNoData
	}
	if !containsCounty(bundle.Counties, county) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCounty, county)
	}
	return bundle, nil
}
