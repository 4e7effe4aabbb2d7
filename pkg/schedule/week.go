package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type WeekNumber struct {
	Week int
	Year int
}

// WeekNumberFromDate returns the ISO week containing date, where weeks begin on weekStartDay.
// A start day earlier than Monday can move the date into the previous ISO week.
func WeekNumberFromDate(date time.Time, weekStartDay time.Weekday) WeekNumber {
	if weekStartDay < time.Sunday || weekStartDay > time.Saturday {
		weekStartDay = time.Monday
	}

	delta := (int(date.Weekday()) - int(weekStartDay) + 7) % 7
	startOfWeek := date.AddDate(0, 0, -delta)

	year, week := startOfWeek.ISOWeek()
	return WeekNumber{Year: year, Week: week}
}

// WeekNumberFromString parses the ISO 8601 week format, e.g. "2024-W09".
func WeekNumberFromString(isoWeek string) (WeekNumber, error) {
	yearPart, weekPart, found := strings.Cut(isoWeek, "-W")
	if !found {
		return WeekNumber{}, fmt.Errorf("invalid ISO week format: %s", isoWeek)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid year: %w", err)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid week: %w", err)
	}
	if week < 1 || week > 53 {
		return WeekNumber{}, fmt.Errorf("week out of range: %d", week)
	}
	return WeekNumber{Year: year, Week: week}, nil
}

func (w WeekNumber) Equal(other WeekNumber) bool {
	return w.Year == other.Year && w.Week == other.Week
}

func (w WeekNumber) Before(other WeekNumber) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

func (w WeekNumber) After(other WeekNumber) bool {
	return other.Before(w)
}

// String returns the ISO 8601 week, e.g. "2024-W09".
func (w WeekNumber) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}
