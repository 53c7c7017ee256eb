package domain

import "time"

// Project shifts every entry of s forward by lag calendar days and scales
// every value by rate. The result reads as "cases observed on date d imply
// this many outcomes on date d+lag".
func Project(s TimeSeries, lag int, rate float64) TimeSeries {
	out := TimeSeries{
		Dates:  make([]time.Time, s.Len()),
		Values: make([]float64, s.Len()),
	}
	for i, d := range s.Dates {
		out.Dates[i] = d.AddDate(0, 0, lag)
		out.Values[i] = s.Values[i] * rate
	}
	return out
}

// Overlay pairs a projected series with the observed series for the same
// outcome over their shared date range. Dates[i] carries both Projected[i]
// and Observed[i], so the two curves compare point for point.
type Overlay struct {
	Dates     []time.Time `json:"dates"`
	Projected []float64   `json:"projected"`
	Observed  []float64   `json:"observed"`
}

// Len returns the number of shared dates in the overlay.
func (o Overlay) Len() int { return len(o.Dates) }

// Align intersects a projected series with an observed one by date. Entries
// outside the shared range are dropped from both sides; if the ranges do not
// overlap the overlay is empty. Matching by date rather than by index is what
// keeps a lagged projection honest: the projection's dates have been shifted,
// so index i of the two series rarely refers to the same day.
func Align(projected, observed TimeSeries) Overlay {
	if projected.Len() == 0 || observed.Len() == 0 {
		return Overlay{}
	}

	start := projected.Start()
	if observed.Start().After(start) {
		start = observed.Start()
	}
	end := projected.End()
	if observed.End().Before(end) {
		end = observed.End()
	}
	if end.Before(start) {
		return Overlay{}
	}

	n := int(end.Sub(start).Hours()/24) + 1
	out := Overlay{
		Dates:     make([]time.Time, 0, n),
		Projected: make([]float64, 0, n),
		Observed:  make([]float64, 0, n),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		p, ok := projected.ValueOn(d)
		if !ok {
			continue
		}
		o, ok := observed.ValueOn(d)
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Projected = append(out.Projected, p)
		out.Observed = append(out.Observed, o)
	}
	return out
}
