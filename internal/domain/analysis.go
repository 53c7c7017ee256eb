package domain

import (
	"fmt"
	"time"
)

// AnalysisOptions fixes the smoothing and anchoring choices shared by every
// analysis product.
type AnalysisOptions struct {
	Window int       // trailing average width in days
	Trim   int       // provisional days dropped from the live end
	Start  time.Time // first day of the analysis window
}

// CaseHistory is a county's reported and smoothed daily case series.
type CaseHistory struct {
	County   string     `json:"county"`
	Reported TimeSeries `json:"reported"`
	Smoothed TimeSeries `json:"smoothed"`
}

// BuildCaseHistory extracts and smooths the case series for one county.
func BuildCaseHistory(cases CaseDataset, county string, opts AnalysisOptions) (CaseHistory, error) {
	reported, err := cases.CaseSeries(county, opts.Start)
	if err != nil {
		return CaseHistory{}, fmt.Errorf("county %s: %w", county, err)
	}
	return CaseHistory{
		County:   county,
		Reported: reported,
		Smoothed: Smooth(reported, opts.Window, opts.Trim),
	}, nil
}

// Projection is the complete lag-and-scale product for one county and
// outcome: the smoothed source curve, its shifted and scaled projection, the
// observed outcome series, and their date-aligned overlay.
type Projection struct {
	County    string     `json:"county"`
	Outcome   Outcome    `json:"outcome"`
	Params    Params     `json:"params"`
	Smoothed  TimeSeries `json:"smoothed"`
	Projected TimeSeries `json:"projected"`
	Observed  TimeSeries `json:"observed"`
	Overlay   Overlay    `json:"overlay"`
	Summary   Summary    `json:"summary"`
}

// BuildProjection computes the projection for one county and outcome after
// validating params against the outcome's tuning ranges.
func BuildProjection(cases CaseDataset, hospitals HospitalDataset, county string, outcome Outcome, params Params, opts AnalysisOptions) (Projection, error) {
	if err := params.Validate(outcome); err != nil {
		return Projection{}, err
	}

	history, err := BuildCaseHistory(cases, county, opts)
	if err != nil {
		return Projection{}, err
	}

	observed, err := observedSeries(cases, hospitals, county, outcome, opts.Start)
	if err != nil {
		return Projection{}, fmt.Errorf("county %s: %w", county, err)
	}

	projected := Project(history.Smoothed, params.Lag, params.Rate)
	summary, err := BuildSummary(county, outcome, params, history.Smoothed, projected, observed)
	if err != nil {
		return Projection{}, fmt.Errorf("county %s: %w", county, err)
	}

	return Projection{
		County:    county,
		Outcome:   outcome,
		Params:    params,
		Smoothed:  history.Smoothed,
		Projected: projected,
		Observed:  observed,
		Overlay:   Align(projected, observed),
		Summary:   summary,
	}, nil
}

// observedSeries picks the published series a projection is compared against.
func observedSeries(cases CaseDataset, hospitals HospitalDataset, county string, outcome Outcome, start time.Time) (TimeSeries, error) {
	switch outcome {
	case OutcomeDeaths:
		return cases.DeathSeries(county, start)
	case OutcomeICU:
		return hospitals.ICUSeries(county, start)
	case OutcomeNonICU:
		return hospitals.NonICUSeries(county, start)
	}
	return TimeSeries{}, fmt.Errorf("unknown outcome %q", outcome)
}
