package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// The current year bounds request validation and picks the compare year.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}

// CurrentYear returns the calendar year of Now.
func CurrentYear() int {
	return Now().Year()
}
