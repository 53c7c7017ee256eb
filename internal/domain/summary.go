package domain

import (
	"errors"
	"fmt"
	"time"
)

// Summary condenses one county's projection for one outcome into the handful
// of numbers a report leads with: the newest projected point, the smoothed
// case count that produced it, and the newest observed value to compare
// against.
type Summary struct {
	County  string  `json:"county"`
	Outcome Outcome `json:"outcome"`
	Params  Params  `json:"params"`

	ProjectedDate  time.Time `json:"projected_date"`
	ProjectedValue float64   `json:"projected_value"`

	SourceDate  time.Time `json:"source_date"`
	SourceValue float64   `json:"source_value"`

	ObservedDate  time.Time `json:"observed_date"`
	ObservedValue float64   `json:"observed_value"`
	HasObserved   bool      `json:"has_observed"`

	// DaysAhead is how many days past today the newest projected point
	// lands. Negative once reporting lag pushes the projection into the
	// past.
	DaysAhead int       `json:"days_ahead"`
	AsOf      time.Time `json:"as_of"`
}

// BuildSummary derives a Summary from a smoothed case series, its projection,
// and the observed outcome series. The smoothed and projected series must
// come from the same Project call, so their last entries describe the same
// underlying case count.
func BuildSummary(county string, outcome Outcome, params Params, smoothed, projected, observed TimeSeries) (Summary, error) {
	projDate, projValue, ok := projected.Last()
	if !ok {
		return Summary{}, errors.New("summary: projected series is empty")
	}
	srcDate, srcValue, ok := smoothed.Last()
	if !ok {
		return Summary{}, errors.New("summary: smoothed series is empty")
	}

	now := Day(clock.Now().UTC())
	s := Summary{
		County:         county,
		Outcome:        outcome,
		Params:         params,
		ProjectedDate:  projDate,
		ProjectedValue: projValue,
		SourceDate:     srcDate,
		SourceValue:    srcValue,
		DaysAhead:      int(projDate.Sub(now).Hours() / 24),
		AsOf:           clock.Now().UTC(),
	}
	if obsDate, obsValue, ok := observed.Last(); ok {
		s.ObservedDate = obsDate
		s.ObservedValue = obsValue
		s.HasObserved = true
	}
	return s, nil
}

// Narrative renders the summary as the sentence a plain-text report prints.
func (s Summary) Narrative() string {
	head := fmt.Sprintf("%s: %.1f smoothed cases on %s project %.1f %s on %s (lag %d days, rate %g)",
		s.County, s.SourceValue, s.SourceDate.Format(DateFormat),
		s.ProjectedValue, s.Outcome.Label(), s.ProjectedDate.Format(DateFormat),
		s.Params.Lag, s.Params.Rate)
	if !s.HasObserved {
		return head + "; no observed values yet"
	}
	return fmt.Sprintf("%s; last observed %.1f on %s",
		head, s.ObservedValue, s.ObservedDate.Format(DateFormat))
}
