package domain

import (
	"fmt"
	"time"
)

// DateFormat is the calendar-date layout used across the service, matching
// the source CSV files.
const DateFormat = "2006-01-02"

// TimeSeries is an ordered sequence of daily observations: Dates[i] is the
// UTC midnight of day i and Values[i] the observation for that day. Dates are
// strictly increasing with one entry per calendar day; smoothing and
// projection rely on that contiguity.
type TimeSeries struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Day normalizes t to midnight UTC, the canonical form for series dates.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewTimeSeries validates dates and values into a TimeSeries. Dates are
// normalized to UTC midnight and must advance exactly one calendar day per
// entry; duplicates, reversals, and gaps are construction errors.
func NewTimeSeries(dates []time.Time, values []float64) (TimeSeries, error) {
	if len(dates) != len(values) {
		return TimeSeries{}, fmt.Errorf("series: %d dates but %d values", len(dates), len(values))
	}

	norm := make([]time.Time, len(dates))
	for i, d := range dates {
		norm[i] = Day(d)
		if i == 0 {
			continue
		}
		if expect := norm[i-1].AddDate(0, 0, 1); !norm[i].Equal(expect) {
			return TimeSeries{}, fmt.Errorf("series: date %s follows %s, want %s",
				norm[i].Format(DateFormat), norm[i-1].Format(DateFormat), expect.Format(DateFormat))
		}
	}

	vals := make([]float64, len(values))
	copy(vals, values)
	return TimeSeries{Dates: norm, Values: vals}, nil
}

// Len returns the number of observations.
func (s TimeSeries) Len() int { return len(s.Values) }

// Start returns the first date, or the zero time for an empty series.
func (s TimeSeries) Start() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[0]
}

// End returns the last date, or the zero time for an empty series.
func (s TimeSeries) End() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Last returns the final observation; ok is false for an empty series.
func (s TimeSeries) Last() (date time.Time, value float64, ok bool) {
	if s.Len() == 0 {
		return time.Time{}, 0, false
	}
	return s.Dates[s.Len()-1], s.Values[s.Len()-1], true
}

// ValueOn returns the observation for the given calendar day; ok is false
// when the day lies outside the series. Contiguity makes this an index
// computation rather than a search.
func (s TimeSeries) ValueOn(date time.Time) (value float64, ok bool) {
	i, ok := s.indexOf(Day(date))
	if !ok {
		return 0, false
	}
	return s.Values[i], true
}

func (s TimeSeries) indexOf(day time.Time) (int, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	i := int(day.Sub(s.Dates[0]).Hours() / 24)
	if i < 0 || i >= s.Len() {
		return 0, false
	}
	return i, true
}

// From returns the subseries of observations on or after start.
func (s TimeSeries) From(start time.Time) TimeSeries {
	start = Day(start)
	i := 0
	for i < s.Len() && s.Dates[i].Before(start) {
		i++
	}
	return TimeSeries{
		Dates:  append([]time.Time(nil), s.Dates[i:]...),
		Values: append([]float64(nil), s.Values[i:]...),
	}
}

// TrimTail drops the final n observations. Trimming more than the series
// holds yields an empty series.
func (s TimeSeries) TrimTail(n int) TimeSeries {
	if n <= 0 {
		return TimeSeries{
			Dates:  append([]time.Time(nil), s.Dates...),
			Values: append([]float64(nil), s.Values...),
		}
	}
	keep := s.Len() - n
	if keep <= 0 {
		return TimeSeries{}
	}
	return TimeSeries{
		Dates:  append([]time.Time(nil), s.Dates[:keep]...),
		Values: append([]float64(nil), s.Values[:keep]...),
	}
}
