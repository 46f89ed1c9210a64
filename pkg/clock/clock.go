package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock supplies the current instant. Every expiry comparison in bookingkit
// goes through a Clock so lifecycle rules can be tested without real delays.
type Clock = clockwork.Clock

// New returns a Clock backed by the system time.
func New() Clock {
	return clockwork.NewRealClock()
}

// NowUTC returns the clock's current time normalized to UTC.
func NowUTC(c Clock) time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}
