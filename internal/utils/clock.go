package utils

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock returns a fixed instant, for tests that depend on "today".
type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// Today returns midnight of the clock's current date in loc.
func Today(clock Clock, loc *time.Location) time.Time {
	year, month, day := clock.Now().In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
