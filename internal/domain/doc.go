// Package domain implements the analysis core: daily time series for a
// selected county, trailing moving-average smoothing, and fixed-lag scaled
// projections of downstream outcomes.
//
// # Data Sources
//
// Two California open-data CSV files feed the service. The case file
// ("Statewide COVID-19 Cases Deaths Tests") carries one row per area per day
// with confirmed case and death counts; areas include every county plus
// statewide aggregates, so only rows whose area also appears in the hospital
// file survive county selection. The hospital file ("COVID-19 Hospital Data")
// carries one row per county per day with patient census counts:
//
//	icu_covid_confirmed_patients          confirmed COVID patients in ICU beds
//	icu_suspected_covid_patients          suspected COVID patients in ICU beds
//	hospitalized_covid_confirmed_patients confirmed COVID patients in any bed
//
// The observed outcome series derive from those columns as:
//
//	deaths  = deaths column of the case file
//	icu     = icu_covid_confirmed_patients + icu_suspected_covid_patients
//	non_icu = hospitalized_covid_confirmed_patients - icu_covid_confirmed_patients
//
// # Smoothing and the reporting tail
//
// Daily counts swing hard with weekday reporting cycles, so comparisons use a
// trailing 7-day unweighted mean: entry i averages days [i-6, i], truncated at
// the start of the series. The last few days of every source series are
// provisional (counties backfill late reports), so a configurable number of
// trailing days (default 3) is dropped before smoothing instead of being
// averaged over a short, misleading window.
//
// # Lag-scale projection
//
// The model is deliberately simple: a fraction R of the smoothed cases seen on
// day d becomes the outcome on day d+L. Projecting therefore shifts the
// smoothed series forward by L calendar days and multiplies it by R. L and R
// are hand-tuned slider parameters, not fitted coefficients. Because the
// projected dates run ahead of the observed ones, overlays must join the two
// series on date, never on slice index; [Align] is the only sanctioned way to
// build a comparison.
package domain
