package schedule

import (
	"strings"
	"time"
)

type WorkingDaysKind string

const (
	WeekdaysOnly WorkingDaysKind = "weekdays_only"
	AllDays      WorkingDaysKind = "all_days"
	Custom       WorkingDaysKind = "custom"
)

// WorkingDaysPolicy decides which calendar days count toward an activity duration.
type WorkingDaysPolicy struct {
	Kind            WorkingDaysKind
	IncludeSaturday bool
	IncludeSunday   bool
}

func ParseWorkingDaysKind(s string) (WorkingDaysKind, bool) {
	switch WorkingDaysKind(strings.ToLower(strings.TrimSpace(s))) {
	case WeekdaysOnly:
		return WeekdaysOnly, true
	case AllDays:
		return AllDays, true
	case Custom:
		return Custom, true
	}
	return WeekdaysOnly, false
}

// IsWorkingDay reports whether the given date counts under the policy.
// Unknown kinds fall back to weekdays only.
func (p WorkingDaysPolicy) IsWorkingDay(date time.Time) bool {
	weekday := date.Weekday()
	switch p.Kind {
	case AllDays:
		return true
	case Custom:
		if weekday == time.Saturday {
			return p.IncludeSaturday
		}
		if weekday == time.Sunday {
			return p.IncludeSunday
		}
		return true
	default:
		return weekday != time.Saturday && weekday != time.Sunday
	}
}

// CalculateDuration counts the working days between start and end, both inclusive.
// Time of day is ignored. An end before start yields 0.
func CalculateDuration(start, end time.Time, policy WorkingDaysPolicy) int {
	from := DateOnly(start)
	to := dateIn(end, start.Location())
	if to.Before(from) {
		return 0
	}

	count := 0
	for day := from; !day.After(to); day = AddDays(day, 1) {
		if policy.IsWorkingDay(day) {
			count++
		}
	}
	return count
}

// CalendarDays returns the inclusive number of calendar days between start and end, 0 when end is before start.
// It does not iterate, so it is safe to call on unchecked ranges.
func CalendarDays(start, end time.Time) int {
	from := dateIn(start, time.UTC)
	to := dateIn(end, time.UTC)
	if to.Before(from) {
		return 0
	}
	return int((to.Unix()-from.Unix())/secondsPerDay) + 1
}

const secondsPerDay = 24 * 60 * 60

// dateIn keeps the calendar date of t and places it at midnight in loc.
func dateIn(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// AddDays moves a date by n calendar days, keeping it at midnight across DST changes.
func AddDays(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+n, 0, 0, 0, 0, t.Location())
}

// OnWorkingDays moves forecast points onto consecutive working days of policy, starting from the
// date of the first point. Day indexes and targets are unchanged.
func OnWorkingDays(points []DailyForecastPoint, policy WorkingDaysPolicy) []DailyForecastPoint {
	aligned := make([]DailyForecastPoint, len(points))
	if len(points) == 0 {
		return aligned
	}
	day := DateOnly(points[0].Date)
	for i, p := range points {
		for !policy.IsWorkingDay(day) {
			day = AddDays(day, 1)
		}
		p.Date = day
		aligned[i] = p
		day = AddDays(day, 1)
	}
	return aligned
}
