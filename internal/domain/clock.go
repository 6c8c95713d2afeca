package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package time source used for ObservedAt stamps, risk
// UpdatedAt, and building-age math. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock. Callers outside the
// package use it so frozen-clock tests see consistent timestamps.
func Now() time.Time {
	return clock.Now()
}
