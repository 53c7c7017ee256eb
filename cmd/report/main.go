// Command report runs the lagged projection analysis once and prints a
// plain-text report, no service required. Each dataset can come from a local
// CSV file or a CHHS URL; -snapshot-dir reads both from a snapshot store
// written by the service instead.
//
// Usage:
//
//	go run ./cmd/report \
//	  -cases data/covid19cases_test.csv \
//	  -hospitals data/covid19hospitalbycounty.csv \
//	  -county "Santa Clara" -outcome deaths
//
//	go run ./cmd/report -snapshot-dir data/snapshots -outcome all
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/almadenlabs/covidlag/internal/adapter/cdph"
	"github.com/almadenlabs/covidlag/internal/adapter/snapshot"
	"github.com/almadenlabs/covidlag/internal/domain"
)

const fetchTimeout = 30 * time.Second

type reportOptions struct {
	casesSrc     string
	hospitalsSrc string
	snapshotDir  string
	county       string
	outcome      string
	lag          int
	rate         float64
	start        string
	window       int
	trim         int
	list         bool
	asJSON       bool
}

func main() {
	var opts reportOptions
	flag.StringVar(&opts.casesSrc, "cases", "", "path or URL of the case/death CSV")
	flag.StringVar(&opts.hospitalsSrc, "hospitals", "", "path or URL of the hospital census CSV")
	flag.StringVar(&opts.snapshotDir, "snapshot-dir", "", "read both datasets from this snapshot store instead of -cases/-hospitals")
	flag.StringVar(&opts.county, "county", "Santa Clara", "county to analyze")
	flag.StringVar(&opts.outcome, "outcome", "all", "outcome to project: deaths, icu, non_icu, or all")
	flag.IntVar(&opts.lag, "lag", -1, "projection lag in days (-1 uses the outcome default)")
	flag.Float64Var(&opts.rate, "rate", -1, "projection rate (-1 uses the outcome default)")
	flag.StringVar(&opts.start, "start", "2020-03-01", "analysis start date (YYYY-MM-DD)")
	flag.IntVar(&opts.window, "window", 7, "smoothing window in days")
	flag.IntVar(&opts.trim, "trim", 3, "trailing days to drop before smoothing")
	flag.BoolVar(&opts.list, "list", false, "list counties present in both datasets and exit")
	flag.BoolVar(&opts.asJSON, "json", false, "emit projections as JSON instead of text")
	flag.Parse()

	if opts.snapshotDir == "" && (opts.casesSrc == "" || opts.hospitalsSrc == "") {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func run(opts reportOptions) int {
	cases, hospitals, err := loadDatasets(opts.casesSrc, opts.hospitalsSrc, opts.snapshotDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	counties := domain.CommonCounties(cases, hospitals)
	if opts.list {
		for _, c := range counties {
			fmt.Println(c)
		}
		return 0
	}

	start, err := time.Parse(domain.DateFormat, opts.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid -start: %v\n", err)
		return 1
	}
	analysisOpts := domain.AnalysisOptions{Window: opts.window, Trim: opts.trim, Start: start.UTC()}

	if !contains(counties, opts.county) {
		fmt.Fprintf(os.Stderr, "FATAL: county %q not present in both datasets (try -list)\n", opts.county)
		return 1
	}

	outcomes, err := selectOutcomes(opts.outcome)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	projections := make([]domain.Projection, 0, len(outcomes))
	for _, o := range outcomes {
		params, err := resolveParams(o, opts.lag, opts.rate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		p, err := domain.BuildProjection(cases, hospitals, opts.county, o, params, analysisOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", o, err)
			return 1
		}
		projections = append(projections, p)
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(projections); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: encode: %v\n", err)
			return 1
		}
		return 0
	}

	printReport(opts.county, projections)
	return 0
}

func loadDatasets(casesSrc, hospitalsSrc, snapshotDir string) (domain.CaseDataset, domain.HospitalDataset, error) {
	casesRaw, hospRaw, err := readPayloads(casesSrc, hospitalsSrc, snapshotDir)
	if err != nil {
		return nil, nil, err
	}

	cases, err := cdph.LoadCases(casesRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse cases: %w", err)
	}
	hospitals, err := cdph.LoadHospitals(hospRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse hospitals: %w", err)
	}
	return cases, hospitals, nil
}

func readPayloads(casesSrc, hospitalsSrc, snapshotDir string) ([]byte, []byte, error) {
	if snapshotDir != "" {
		store, err := snapshot.Open(snapshotDir)
		if err != nil {
			return nil, nil, err
		}
		defer store.Close()

		casesSnap, err := store.Load("cases")
		if err != nil {
			return nil, nil, err
		}
		hospSnap, err := store.Load("hospitals")
		if err != nil {
			return nil, nil, err
		}
		return casesSnap.Payload, hospSnap.Payload, nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := cdph.NewClient(casesSrc, hospitalsSrc, fetchTimeout, logger)

	casesRaw, err := readSource(casesSrc, client.FetchCases)
	if err != nil {
		return nil, nil, err
	}
	hospRaw, err := readSource(hospitalsSrc, client.FetchHospitals)
	if err != nil {
		return nil, nil, err
	}
	return casesRaw, hospRaw, nil
}

func readSource(src string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return fetch(ctx)
	}
	return os.ReadFile(src)
}

func selectOutcomes(flagValue string) ([]domain.Outcome, error) {
	if flagValue == "all" {
		return domain.Outcomes(), nil
	}
	o, err := domain.ParseOutcome(flagValue)
	if err != nil {
		return nil, err
	}
	return []domain.Outcome{o}, nil
}

// resolveParams starts from the outcome defaults and overrides whichever of
// lag and rate were given on the command line.
func resolveParams(o domain.Outcome, lag int, rate float64) (domain.Params, error) {
	params, err := domain.DefaultParams(o)
	if err != nil {
		return domain.Params{}, err
	}
	if lag >= 0 {
		params.Lag = lag
	}
	if rate >= 0 {
		params.Rate = rate
	}
	if err := params.Validate(o); err != nil {
		return domain.Params{}, err
	}
	return params, nil
}

func printReport(county string, projections []domain.Projection) {
	fmt.Printf("=== %s projection report ===\n\n", county)

	for _, p := range projections {
		fmt.Println(p.Summary.Narrative())

		if p.Overlay.Len() == 0 {
			fmt.Println("  (no overlapping observed days yet)")
			fmt.Println()
			continue
		}

		// Show the tail of the projected-vs-observed overlay.
		tail := p.Overlay.Len()
		const maxRows = 7
		from := 0
		if tail > maxRows {
			from = tail - maxRows
		}
		fmt.Printf("  %-12s %12s %12s\n", "date", "projected", "observed")
		for i := from; i < tail; i++ {
			fmt.Printf("  %-12s %12.1f %12.1f\n",
				p.Overlay.Dates[i].Format(domain.DateFormat),
				p.Overlay.Projected[i],
				p.Overlay.Observed[i])
		}
		fmt.Println()
	}
}

func contains(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}
