package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Run("shifts dates and scales values", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.June, 1), []float64{100})

		out := Project(s, 17, 0.02)

		require.Equal(t, 1, out.Len())
		assert.Equal(t, day(2020, time.June, 18), out.Dates[0])
		assert.InDelta(t, 2.0, out.Values[0], 1e-9)
	})

	t.Run("lag crosses a month boundary", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.January, 30), []float64{50})

		out := Project(s, 5, 0.1)

		assert.Equal(t, day(2020, time.February, 4), out.Dates[0])
	})

	t.Run("result stays contiguous", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.March, 1), []float64{10, 20, 30})

		out := Project(s, 13, 0.47)

		got, err := NewTimeSeries(out.Dates, out.Values)
		require.NoError(t, err)
		assert.Equal(t, day(2020, time.March, 14), got.Start())
		assert.Equal(t, day(2020, time.March, 16), got.End())
	})

	t.Run("zero lag keeps dates", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.March, 1), []float64{10, 20})

		out := Project(s, 0, 0.5)

		assert.Equal(t, s.Dates, out.Dates)
		assert.Equal(t, []float64{5, 10}, out.Values)
	})

	t.Run("source series unchanged", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.March, 1), []float64{10, 20})

		Project(s, 3, 2)

		assert.Equal(t, []float64{10, 20}, s.Values)
		assert.Equal(t, day(2020, time.March, 1), s.Start())
	})

	t.Run("empty series", func(t *testing.T) {
		out := Project(TimeSeries{}, 17, 0.02)
		assert.Equal(t, 0, out.Len())
	})
}

func TestAlign(t *testing.T) {
	t.Run("pairs values by date not index", func(t *testing.T) {
		// A 3-day lag: projected dates start where observed index 3 sits.
		cases := mustSeries(t, day(2020, time.March, 1), []float64{100, 200, 300, 400})
		projected := Project(cases, 3, 0.1)
		observed := mustSeries(t, day(2020, time.March, 1), []float64{1, 2, 3, 4, 5, 6, 7})

		out := Align(projected, observed)

		require.Equal(t, 4, out.Len())
		assert.Equal(t, day(2020, time.March, 4), out.Dates[0])
		assert.Equal(t, day(2020, time.March, 7), out.Dates[3])
		assert.InDelta(t, 10.0, out.Projected[0], 1e-9)
		assert.Equal(t, 4.0, out.Observed[0])
		assert.InDelta(t, 40.0, out.Projected[3], 1e-9)
		assert.Equal(t, 7.0, out.Observed[3])
	})

	t.Run("identical ranges overlap fully", func(t *testing.T) {
		a := mustSeries(t, day(2020, time.March, 1), []float64{1, 2, 3})
		b := mustSeries(t, day(2020, time.March, 1), []float64{4, 5, 6})

		out := Align(a, b)

		require.Equal(t, 3, out.Len())
		assert.Equal(t, []float64{1, 2, 3}, out.Projected)
		assert.Equal(t, []float64{4, 5, 6}, out.Observed)
	})

	t.Run("projection extending past observations is cut", func(t *testing.T) {
		projected := mustSeries(t, day(2020, time.March, 3), []float64{1, 2, 3, 4, 5})
		observed := mustSeries(t, day(2020, time.March, 1), []float64{9, 9, 9, 9})

		out := Align(projected, observed)

		require.Equal(t, 2, out.Len())
		assert.Equal(t, day(2020, time.March, 3), out.Dates[0])
		assert.Equal(t, day(2020, time.March, 4), out.Dates[1])
		assert.Equal(t, []float64{1, 2}, out.Projected)
		assert.Equal(t, []float64{9, 9}, out.Observed)
	})

	t.Run("disjoint ranges yield empty overlay", func(t *testing.T) {
		a := mustSeries(t, day(2020, time.March, 1), []float64{1, 2})
		b := mustSeries(t, day(2020, time.April, 1), []float64{3, 4})

		out := Align(a, b)

		assert.Equal(t, 0, out.Len())
	})

	t.Run("empty side yields empty overlay", func(t *testing.T) {
		s := mustSeries(t, day(2020, time.March, 1), []float64{1, 2})

		assert.Equal(t, 0, Align(TimeSeries{}, s).Len())
		assert.Equal(t, 0, Align(s, TimeSeries{}).Len())
	})
}
