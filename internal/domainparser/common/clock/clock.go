// Package clock abstracts wall-clock time so catalog staleness can be tested.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock returns CurrentTime until advanced.
type MockClock struct {
	CurrentTime time.Time
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves the mock clock by d (which may be negative).
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Age returns how long ago the Unix timestamp ts was, according to c.
func Age(c Clock, ts int64) time.Duration {
	return c.Now().Sub(time.Unix(ts, 0))
}
