// Package clock abstracts time so that tier expiry and period bucketing
// are testable. Effective-tier resolution is time-dependent and must be
// re-evaluated on every call, never cached.
package clock

import "time"

// Clock provides the current time in UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by the wall clock.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
