package shared

import "time"

// Clock abstracts time for components whose behaviour depends on it, so
// expiry rules can be exercised in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
