package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCountySC = "Santa Clara"
	testCountyLA = "Los Angeles"
)

func TestCaseDatasetForCounty(t *testing.T) {
	d := CaseDataset{
		{Area: testCountyLA, Date: day(2020, time.March, 1), Cases: 5},
		{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 1},
		{Area: testCountySC, Date: day(2020, time.March, 2), Cases: 2},
		{Area: "California", Date: day(2020, time.March, 1), Cases: 100},
	}

	t.Run("filters preserving order", func(t *testing.T) {
		out := d.ForCounty(testCountySC)

		require.Len(t, out, 2)
		assert.Equal(t, 1.0, out[0].Cases)
		assert.Equal(t, 2.0, out[1].Cases)
	})

	t.Run("unknown county is empty", func(t *testing.T) {
		assert.Empty(t, d.ForCounty("Atlantis"))
	})

	t.Run("exact match only", func(t *testing.T) {
		assert.Empty(t, d.ForCounty("santa clara"))
	})
}

func TestHospitalDatasetForCounty(t *testing.T) {
	d := HospitalDataset{
		{County: testCountySC, Date: day(2020, time.April, 1), ICUConfirmed: 3},
		{County: testCountyLA, Date: day(2020, time.April, 1), ICUConfirmed: 9},
	}

	out := d.ForCounty(testCountySC)

	require.Len(t, out, 1)
	assert.Equal(t, 3.0, out[0].ICUConfirmed)
}

func TestCounties(t *testing.T) {
	t.Run("distinct and sorted", func(t *testing.T) {
		d := CaseDataset{
			{Area: testCountySC},
			{Area: testCountyLA},
			{Area: testCountySC},
			{Area: "Alameda"},
		}

		assert.Equal(t, []string{"Alameda", testCountyLA, testCountySC}, d.Counties())
	})

	t.Run("skips blank areas", func(t *testing.T) {
		d := CaseDataset{{Area: ""}, {Area: "Alameda"}}

		assert.Equal(t, []string{"Alameda"}, d.Counties())
	})

	t.Run("empty dataset", func(t *testing.T) {
		assert.Empty(t, CaseDataset{}.Counties())
	})
}

func TestCommonCounties(t *testing.T) {
	cases := CaseDataset{
		{Area: "California"},
		{Area: testCountySC},
		{Area: testCountyLA},
		{Area: "Unknown"},
	}
	hospitals := HospitalDataset{
		{County: testCountyLA},
		{County: testCountySC},
		{County: "Fresno"},
	}

	t.Run("sorted intersection", func(t *testing.T) {
		out := CommonCounties(cases, hospitals)

		assert.Equal(t, []string{testCountyLA, testCountySC}, out)
	})

	t.Run("aggregate areas never qualify", func(t *testing.T) {
		out := CommonCounties(cases, hospitals)

		assert.NotContains(t, out, "California")
		assert.NotContains(t, out, "Unknown")
	})

	t.Run("no overlap is a valid empty state", func(t *testing.T) {
		out := CommonCounties(cases, HospitalDataset{{County: "Kern"}})

		assert.Empty(t, out)
	})
}

func TestCaseSeries(t *testing.T) {
	start := day(2020, time.March, 1)

	t.Run("orders rows by date", func(t *testing.T) {
		d := CaseDataset{
			{Area: testCountySC, Date: day(2020, time.March, 3), Cases: 30, Deaths: 3},
			{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 10, Deaths: 1},
			{Area: testCountySC, Date: day(2020, time.March, 2), Cases: 20, Deaths: 2},
		}

		s, err := d.CaseSeries(testCountySC, start)

		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 30}, s.Values)
		assert.Equal(t, start, s.Start())
	})

	t.Run("anchors at start date", func(t *testing.T) {
		d := CaseDataset{
			{Area: testCountySC, Date: day(2020, time.February, 28), Cases: 1},
			{Area: testCountySC, Date: day(2020, time.February, 29), Cases: 2},
			{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 3},
			{Area: testCountySC, Date: day(2020, time.March, 2), Cases: 4},
		}

		s, err := d.CaseSeries(testCountySC, start)

		require.NoError(t, err)
		assert.Equal(t, start, s.Start())
		assert.Equal(t, []float64{3, 4}, s.Values)
	})

	t.Run("unknown county yields empty series", func(t *testing.T) {
		s, err := CaseDataset{}.CaseSeries("Atlantis", start)

		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("gap in dates is an error", func(t *testing.T) {
		d := CaseDataset{
			{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 1},
			{Area: testCountySC, Date: day(2020, time.March, 4), Cases: 2},
		}

		_, err := d.CaseSeries(testCountySC, start)

		require.Error(t, err)
	})

	t.Run("duplicate date is an error", func(t *testing.T) {
		d := CaseDataset{
			{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 1},
			{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 9},
		}

		_, err := d.CaseSeries(testCountySC, start)

		require.Error(t, err)
	})
}

func TestDeathSeries(t *testing.T) {
	d := CaseDataset{
		{Area: testCountySC, Date: day(2020, time.March, 1), Cases: 10, Deaths: 1},
		{Area: testCountySC, Date: day(2020, time.March, 2), Cases: 20, Deaths: 2},
	}

	s, err := d.DeathSeries(testCountySC, day(2020, time.March, 1))

	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values)
}

func TestICUSeries(t *testing.T) {
	d := HospitalDataset{
		{County: testCountySC, Date: day(2020, time.April, 1), ICUConfirmed: 3, ICUSuspected: 2},
		{County: testCountySC, Date: day(2020, time.April, 2), ICUConfirmed: 4, ICUSuspected: 0},
	}

	s, err := d.ICUSeries(testCountySC, day(2020, time.March, 1))

	require.NoError(t, err)
	assert.Equal(t, []float64{5, 4}, s.Values)
	assert.Equal(t, day(2020, time.April, 1), s.Start())
}

func TestNonICUSeries(t *testing.T) {
	t.Run("subtracts confirmed ICU patients", func(t *testing.T) {
		d := HospitalDataset{
			{County: testCountySC, Date: day(2020, time.April, 1), HospitalizedConfirmed: 20, ICUConfirmed: 6},
		}

		s, err := d.NonICUSeries(testCountySC, day(2020, time.March, 1))

		require.NoError(t, err)
		assert.Equal(t, []float64{14}, s.Values)
	})

	t.Run("inconsistent counts pass through", func(t *testing.T) {
		d := HospitalDataset{
			{County: testCountySC, Date: day(2020, time.April, 1), HospitalizedConfirmed: 3, ICUConfirmed: 6},
		}

		s, err := d.NonICUSeries(testCountySC, day(2020, time.March, 1))

		require.NoError(t, err)
		assert.Equal(t, []float64{-3}, s.Values)
	})
}
