package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSeries(t *testing.T, start time.Time, values []float64) TimeSeries {
	t.Helper()
	s, err := NewTimeSeries(days(start, len(values)), values)
	require.NoError(t, err)
	return s
}

func TestSmooth(t *testing.T) {
	start := day(2020, time.March, 1)

	t.Run("constant series stays constant", func(t *testing.T) {
		s := mustSeries(t, start, []float64{10, 10, 10, 10, 10, 10, 10})

		out := Smooth(s, 7, 0)

		require.Equal(t, 7, out.Len())
		for i := 0; i < out.Len(); i++ {
			assert.Equal(t, 10.0, out.Values[i])
		}
	})

	t.Run("seven day window absorbs a jump", func(t *testing.T) {
		s := mustSeries(t, start, []float64{10, 10, 10, 10, 10, 10, 10, 20})

		out := Smooth(s, 7, 0)

		require.Equal(t, 8, out.Len())
		for i := 0; i < 7; i++ {
			assert.Equal(t, 10.0, out.Values[i])
		}
		assert.InDelta(t, 80.0/7.0, out.Values[7], 1e-9)
	})

	t.Run("window shrinks near the start", func(t *testing.T) {
		s := mustSeries(t, start, []float64{1, 2, 3})

		out := Smooth(s, 3, 0)

		require.Equal(t, 3, out.Len())
		assert.Equal(t, 1.0, out.Values[0])
		assert.Equal(t, 1.5, out.Values[1])
		assert.Equal(t, 2.0, out.Values[2])
	})

	t.Run("sliding window drops the oldest value", func(t *testing.T) {
		s := mustSeries(t, start, []float64{3, 6, 9, 12})

		out := Smooth(s, 2, 0)

		require.Equal(t, 4, out.Len())
		assert.Equal(t, []float64{3, 4.5, 7.5, 10.5}, out.Values)
	})

	t.Run("trim drops the tail before averaging", func(t *testing.T) {
		s := mustSeries(t, start, []float64{10, 10, 10, 10, 999, 999, 999})

		out := Smooth(s, 7, 3)

		require.Equal(t, 4, out.Len())
		assert.Equal(t, day(2020, time.March, 4), out.End())
		for i := 0; i < out.Len(); i++ {
			assert.Equal(t, 10.0, out.Values[i])
		}
	})

	t.Run("window one is identity", func(t *testing.T) {
		s := mustSeries(t, start, []float64{5, 8, 2})

		out := Smooth(s, 1, 0)

		assert.Equal(t, s.Values, out.Values)
		assert.Equal(t, s.Dates, out.Dates)
	})

	t.Run("window below one treated as one", func(t *testing.T) {
		s := mustSeries(t, start, []float64{5, 8, 2})

		out := Smooth(s, 0, 0)

		assert.Equal(t, s.Values, out.Values)
	})

	t.Run("negative trim treated as zero", func(t *testing.T) {
		s := mustSeries(t, start, []float64{5, 8, 2})

		out := Smooth(s, 1, -4)

		assert.Equal(t, 3, out.Len())
	})

	t.Run("trim beyond length yields empty", func(t *testing.T) {
		s := mustSeries(t, start, []float64{5, 8})

		out := Smooth(s, 7, 5)

		assert.Equal(t, 0, out.Len())
	})

	t.Run("empty series", func(t *testing.T) {
		out := Smooth(TimeSeries{}, 7, 3)
		assert.Equal(t, 0, out.Len())
	})

	t.Run("dates are preserved", func(t *testing.T) {
		s := mustSeries(t, start, []float64{1, 2, 3, 4, 5})

		out := Smooth(s, 3, 1)

		require.Equal(t, 4, out.Len())
		assert.Equal(t, start, out.Start())
		assert.Equal(t, day(2020, time.March, 4), out.End())
	})
}
