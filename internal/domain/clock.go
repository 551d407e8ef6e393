package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze the lookback
// window via SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by Window. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Window returns the inclusive year range a stream covers: lookback+1 years
// ending at the most recent fully-elapsed year. The current year is excluded
// because upstream data lags real time.
func Window(lookback int) (startYear, endYear int) {
	endYear = clock.Now().Year() - 1
	return endYear - lookback, endYear
}
