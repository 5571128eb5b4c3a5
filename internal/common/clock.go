package common

import "time"

// SystemClock reports wall-clock time. Tests substitute a fixed clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
