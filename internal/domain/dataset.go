package domain

import (
	"sort"
	"time"
)

// CaseRow is one reporting area's confirmed cases and deaths for one day,
// as published in the statewide case file.
type CaseRow struct {
	Area   string
	Date   time.Time
	Cases  float64
	Deaths float64
}

// HospitalRow is one county's hospital census for one day, as published in
// the statewide hospital file.
type HospitalRow struct {
	County                string
	Date                  time.Time
	ICUConfirmed          float64
	ICUSuspected          float64
	HospitalizedConfirmed float64
}

// CaseDataset is the parsed case file in original row order.
type CaseDataset []CaseRow

// HospitalDataset is the parsed hospital file in original row order.
type HospitalDataset []HospitalRow

// ForCounty returns the rows whose area equals county, preserving row order.
// An unknown county yields an empty dataset, not an error.
func (d CaseDataset) ForCounty(county string) CaseDataset {
	var out CaseDataset
	for _, r := range d {
		if r.Area == county {
			out = append(out, r)
		}
	}
	return out
}

// ForCounty returns the rows whose county field equals county, preserving
// row order. An unknown county yields an empty dataset, not an error.
func (d HospitalDataset) ForCounty(county string) HospitalDataset {
	var out HospitalDataset
	for _, r := range d {
		if r.County == county {
			out = append(out, r)
		}
	}
	return out
}

// Counties returns the distinct area values, sorted. The case file mixes
// counties with aggregate areas ("California", "Unknown"); intersecting with
// the hospital file's counties is what makes the list selectable.
func (d CaseDataset) Counties() []string {
	return distinct(d, func(r CaseRow) string { return r.Area })
}

// Counties returns the distinct county values, sorted.
func (d HospitalDataset) Counties() []string {
	return distinct(d, func(r HospitalRow) string { return r.County })
}

func distinct[R any](rows []R, key func(R) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CommonCounties returns the sorted intersection of county names present in
// both datasets, the set of counties for which every analysis series exists.
// An empty intersection is a valid empty-options state.
func CommonCounties(cases CaseDataset, hospitals HospitalDataset) []string {
	inHospitals := make(map[string]struct{})
	for _, c := range hospitals.Counties() {
		inHospitals[c] = struct{}{}
	}

	var out []string
	for _, c := range cases.Counties() {
		if _, ok := inHospitals[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CaseSeries extracts the daily confirmed-case series for county, anchored
// at start. Rows are ordered by date before validation, so a source file
// grouped by area still yields a well-formed series.
func (d CaseDataset) CaseSeries(county string, start time.Time) (TimeSeries, error) {
	return buildSeries(d.ForCounty(county), start,
		func(r CaseRow) (time.Time, float64) { return r.Date, r.Cases })
}

// DeathSeries extracts the daily death series for county, anchored at start.
func (d CaseDataset) DeathSeries(county string, start time.Time) (TimeSeries, error) {
	return buildSeries(d.ForCounty(county), start,
		func(r CaseRow) (time.Time, float64) { return r.Date, r.Deaths })
}

// ICUSeries extracts the daily ICU patient series for county: confirmed plus
// suspected COVID patients in ICU beds.
func (d HospitalDataset) ICUSeries(county string, start time.Time) (TimeSeries, error) {
	return buildSeries(d.ForCounty(county), start,
		func(r HospitalRow) (time.Time, float64) { return r.Date, r.ICUConfirmed + r.ICUSuspected })
}

// NonICUSeries extracts the daily non-ICU hospitalization series for county:
// confirmed hospitalized patients minus those in ICU beds. The value is
// reported as published, even on days where inconsistent source counts drive
// it negative.
func (d HospitalDataset) NonICUSeries(county string, start time.Time) (TimeSeries, error) {
	return buildSeries(d.ForCounty(county), start,
		func(r HospitalRow) (time.Time, float64) { return r.Date, r.HospitalizedConfirmed - r.ICUConfirmed })
}

func buildSeries[R any](rows []R, start time.Time, point func(R) (time.Time, float64)) (TimeSeries, error) {
	type obs struct {
		date  time.Time
		value float64
	}

	start = Day(start)
	var all []obs
	for _, r := range rows {
		d, v := point(r)
		d = Day(d)
		if d.Before(start) {
			continue
		}
		all = append(all, obs{date: d, value: v})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].date.Before(all[j].date) })

	dates := make([]time.Time, len(all))
	values := make([]float64, len(all))
	for i, o := range all {
		dates[i] = o.date
		values[i] = o.value
	}
	return NewTimeSeries(dates, values)
}
