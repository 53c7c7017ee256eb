package domain

import "github.com/jonboulle/clockwork"

// clock supplies "today" for projection summaries. Tests freeze it with
// SetClock so day-relative fields stay deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
