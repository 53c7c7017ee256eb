package domain

import "time"

// Smooth returns the trailing moving average of s after dropping the last
// trim entries. Entry i of the result averages the window ending at i, which
// shrinks near the start of the series: the first entry averages one value,
// the second two, up to the full window size.
//
// The tail is dropped before averaging so provisional recent counts never
// leak into the smoothed series. A window below 1 is treated as 1, a
// negative trim as 0.
func Smooth(s TimeSeries, window, trim int) TimeSeries {
	if window < 1 {
		window = 1
	}
	if trim < 0 {
		trim = 0
	}

	s = s.TrimTail(trim)
	n := s.Len()
	out := TimeSeries{
		Dates:  make([]time.Time, n),
		Values: make([]float64, n),
	}
	copy(out.Dates, s.Dates)

	var sum float64
	for i := 0; i < n; i++ {
		sum += s.Values[i]
		width := window
		if i+1 < window {
			width = i + 1
		} else if i >= window {
			sum -= s.Values[i-window]
		}
		out.Values[i] = sum / float64(width)
	}
	return out
}
