// Command genfixtures writes synthetic CDPH-shaped CSV fixtures for demos
// and tests: a case/death file and a hospital census file whose outcome
// columns really are lagged, scaled copies of the case curve. It runs the
// actual analysis package over the generated data so the printed stats match
// what the service would compute.
//
// Usage:
//
//	go run ./cmd/genfixtures -out-dir testdata -days 120
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/almadenlabs/covidlag/internal/domain"
)

const (
	casesFile     = "covid19cases_test.csv"
	hospitalsFile = "covid19hospitalbycounty.csv"
)

// countyShape tunes one county's synthetic epidemic wave.
type countyShape struct {
	name       string
	population int
	peakDay    float64
	peakCases  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write the CSV fixtures into")
	startFlag := flag.String("start", "2020-03-01", "first date in the fixtures (YYYY-MM-DD)")
	days := flag.Int("days", 120, "number of days to generate")
	seed := flag.Int64("seed", 42, "random seed for reporting jitter")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	start, err := time.Parse(domain.DateFormat, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	start = start.UTC()

	// Fix the clock so summary narratives in the stats output are
	// reproducible run to run.
	domain.SetClock(clockwork.NewFakeClockAt(start.AddDate(0, 0, *days)))
	defer domain.SetClock(nil)

	shapes := []countyShape{
		{name: "Santa Clara", population: 1927852, peakDay: 45, peakCases: 380},
		{name: "Los Angeles", population: 10039107, peakDay: 60, peakCases: 2400},
		{name: "San Francisco", population: 881549, peakDay: 52, peakCases: 160},
	}

	rng := rand.New(rand.NewSource(*seed))

	cases, hospitals := generate(shapes, start, *days, rng)

	populations := make(map[string]int, len(shapes))
	for _, s := range shapes {
		populations[s.name] = s.population
	}

	if err := writeCasesCSV(filepath.Join(*outDir, casesFile), cases, populations); err != nil {
		return fmt.Errorf("writing cases fixture: %w", err)
	}
	log.Printf("wrote %s: %d rows", casesFile, len(cases))

	if err := writeHospitalsCSV(filepath.Join(*outDir, hospitalsFile), hospitals); err != nil {
		return fmt.Errorf("writing hospitals fixture: %w", err)
	}
	log.Printf("wrote %s: %d rows", hospitalsFile, len(hospitals))

	printStats(cases, hospitals, start)
	return nil
}

// generate builds both datasets. Deaths and hospital occupancy are derived
// from the case curve with the default lags and rates, so projections over
// the fixtures line up with the observed columns.
func generate(shapes []countyShape, start time.Time, days int, rng *rand.Rand) (domain.CaseDataset, domain.HospitalDataset) {
	var cases domain.CaseDataset
	var hospitals domain.HospitalDataset

	for _, shape := range shapes {
		curve := caseCurve(shape, days, rng)
		deaths := laggedOutcome(curve, 17, 0.018)
		icu := laggedOutcome(curve, 15, 0.19)
		nonICU := laggedOutcome(curve, 13, 0.47)

		for i := 0; i < days; i++ {
			date := start.AddDate(0, 0, i)
			cases = append(cases, domain.CaseRow{
				Area:   shape.name,
				Date:   date,
				Cases:  curve[i],
				Deaths: deaths[i],
			})
			hospitals = append(hospitals, domain.HospitalRow{
				County:                shape.name,
				Date:                  date,
				ICUConfirmed:          icu[i],
				ICUSuspected:          math.Round(icu[i] * 0.2),
				HospitalizedConfirmed: icu[i] + nonICU[i],
			})
		}
	}
	return cases, hospitals
}

// caseCurve produces a noisy gaussian wave of daily confirmed cases.
func caseCurve(shape countyShape, days int, rng *rand.Rand) []float64 {
	out := make([]float64, days)
	for i := range out {
		x := (float64(i) - shape.peakDay) / 18.0
		base := shape.peakCases * math.Exp(-x*x/2)

		// Reporting jitter: weekend dips and day-to-day noise.
		noise := 1 + 0.2*rng.NormFloat64()
		if noise < 0.1 {
			noise = 0.1
		}
		out[i] = math.Max(0, math.Round(base*noise))
	}
	return out
}

// laggedOutcome shifts the case curve forward by lag days and scales it by
// rate, which is exactly the relationship the projection model assumes.
func laggedOutcome(curve []float64, lag int, rate float64) []float64 {
	out := make([]float64, len(curve))
	for i := range out {
		if i < lag {
			continue
		}
		out[i] = math.Round(curve[i-lag] * rate)
	}
	return out
}

func writeCasesCSV(path string, rows domain.CaseDataset, populations map[string]int) error {
	var b strings.Builder
	b.WriteString("date,area,area_type,population,cases,deaths\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,County,%d,%g,%g\n",
			r.Date.Format(domain.DateFormat), r.Area, populations[r.Area], r.Cases, r.Deaths)
	}
	return writeFile(path, b.String())
}

func writeHospitalsCSV(path string, rows domain.HospitalDataset) error {
	var b strings.Builder
	b.WriteString("county,todays_date,hospitalized_covid_confirmed_patients," +
		"hospitalized_suspected_covid_patients,icu_covid_confirmed_patients," +
		"icu_suspected_covid_patients,icu_available_beds\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%g,%g,%g,%g,\n",
			r.County, r.Date.Format(domain.DateFormat),
			r.HospitalizedConfirmed, math.Round(r.HospitalizedConfirmed*0.1),
			r.ICUConfirmed, r.ICUSuspected)
	}
	return writeFile(path, b.String())
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func printStats(cases domain.CaseDataset, hospitals domain.HospitalDataset, start time.Time) {
	opts := domain.AnalysisOptions{Window: 7, Trim: 3, Start: start}

	fmt.Println("\n=== Stats for updating test assertions ===")
	counties := domain.CommonCounties(cases, hospitals)
	fmt.Printf("Counties: %s\n", strings.Join(counties, ", "))

	for _, county := range counties {
		history, err := domain.BuildCaseHistory(cases, county, opts)
		if err != nil {
			log.Printf("%s: case history: %v", county, err)
			continue
		}

		var total float64
		peak, peakDate := 0.0, start
		for i, v := range history.Reported.Values {
			total += v
			if v > peak {
				peak = v
				peakDate = history.Reported.Dates[i]
			}
		}
		fmt.Printf("\n%s: %d days, %.0f total cases, peak %.0f on %s\n",
			county, history.Reported.Len(), total, peak, peakDate.Format(domain.DateFormat))

		for _, outcome := range domain.Outcomes() {
			params, err := domain.DefaultParams(outcome)
			if err != nil {
				continue
			}
			p, err := domain.BuildProjection(cases, hospitals, county, outcome, params, opts)
			if err != nil {
				log.Printf("%s: %s projection: %v", county, outcome, err)
				continue
			}
			fmt.Printf("  %s\n", p.Summary.Narrative())
		}
	}
}
