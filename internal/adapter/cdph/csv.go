package cdph

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/almadenlabs/covidlag/internal/domain"
)

// Column names as published in the CHHS open-data portal.
const (
	casesAreaColumn   = "area"
	casesDateColumn   = "date"
	casesCasesColumn  = "cases"
	casesDeathsColumn = "deaths"

	hospCountyColumn       = "county"
	hospDateColumn         = "todays_date"
	hospICUConfirmedColumn = "icu_covid_confirmed_patients"
	hospICUSuspectedColumn = "icu_suspected_covid_patients"
	hospConfirmedColumn    = "hospitalized_covid_confirmed_patients"
)

// ParseCases reads the statewide case file. Rows with an unparseable date or
// a blank area are dropped; blank or NA counts read as zero.
func ParseCases(r io.Reader) (domain.CaseDataset, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cases file: read header: %w", err)
	}
	cols, err := resolveColumns(header, "cases file",
		casesAreaColumn, casesDateColumn, casesCasesColumn, casesDeathsColumn)
	if err != nil {
		return nil, err
	}

	var out domain.CaseDataset
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cases file: read row: %w", err)
		}

		area := field(record, cols[casesAreaColumn])
		date, ok := parseDate(field(record, cols[casesDateColumn]))
		if area == "" || !ok {
			continue
		}

		out = append(out, domain.CaseRow{
			Area:   area,
			Date:   date,
			Cases:  parseCount(field(record, cols[casesCasesColumn])),
			Deaths: parseCount(field(record, cols[casesDeathsColumn])),
		})
	}
	return out, nil
}

// ParseHospitals reads the statewide hospital census file under the same row
// rules as ParseCases.
func ParseHospitals(r io.Reader) (domain.HospitalDataset, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("hospitals file: read header: %w", err)
	}
	cols, err := resolveColumns(header, "hospitals file",
		hospCountyColumn, hospDateColumn, hospICUConfirmedColumn, hospICUSuspectedColumn, hospConfirmedColumn)
	if err != nil {
		return nil, err
	}

	var out domain.HospitalDataset
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("hospitals file: read row: %w", err)
		}

		county := field(record, cols[hospCountyColumn])
		date, ok := parseDate(field(record, cols[hospDateColumn]))
		if county == "" || !ok {
			continue
		}

		out = append(out, domain.HospitalRow{
			County:                county,
			Date:                  date,
			ICUConfirmed:          parseCount(field(record, cols[hospICUConfirmedColumn])),
			ICUSuspected:          parseCount(field(record, cols[hospICUSuspectedColumn])),
			HospitalizedConfirmed: parseCount(field(record, cols[hospConfirmedColumn])),
		})
	}
	return out, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

// resolveColumns maps each required column name to its header index.
func resolveColumns(header []string, file string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	out := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q", file, name)
		}
		out[name] = i
	}
	return out, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return domain.Day(t), true
}

// parseCount reads a numeric cell. The source files leave counts blank or NA
// on days a facility did not report; those read as zero so a county's series
// stays contiguous.
func parseCount(s string) float64 {
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "none") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
