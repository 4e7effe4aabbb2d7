package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var weekdaysOnly = WorkingDaysPolicy{Kind: WeekdaysOnly}
var allDays = WorkingDaysPolicy{Kind: AllDays}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCalculateDuration(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		policy WorkingDaysPolicy
		want   int
	}{
		{
			name:   "March 2024 weekdays",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: weekdaysOnly,
			want:   21,
		},
		{
			name:   "March 2024 all days",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: allDays,
			want:   31,
		},
		{
			name:   "custom with saturdays only",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: WorkingDaysPolicy{Kind: Custom, IncludeSaturday: true},
			want:   26,
		},
		{
			name:   "custom with sundays only",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: WorkingDaysPolicy{Kind: Custom, IncludeSunday: true},
			want:   26,
		},
		{
			name:   "custom without weekend days equals weekdays",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: WorkingDaysPolicy{Kind: Custom},
			want:   21,
		},
		{
			name:   "single weekend day under weekdays policy",
			start:  date(2024, 3, 2),
			end:    date(2024, 3, 2),
			policy: weekdaysOnly,
			want:   0,
		},
		{
			name:   "single working day",
			start:  date(2024, 3, 4),
			end:    date(2024, 3, 4),
			policy: weekdaysOnly,
			want:   1,
		},
		{
			name:   "end before start",
			start:  date(2024, 3, 10),
			end:    date(2024, 3, 1),
			policy: allDays,
			want:   0,
		},
		{
			name:   "time of day is ignored",
			start:  time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC),
			end:    time.Date(2024, 3, 5, 0, 1, 0, 0, time.UTC),
			policy: allDays,
			want:   2,
		},
		{
			name:   "unknown policy kind behaves as weekdays only",
			start:  date(2024, 3, 1),
			end:    date(2024, 3, 31),
			policy: WorkingDaysPolicy{Kind: "fortnightly"},
			want:   21,
		},
		{
			name:   "leap day counted",
			start:  date(2024, 2, 28),
			end:    date(2024, 3, 1),
			policy: allDays,
			want:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDuration(tt.start, tt.end, tt.policy))
		})
	}
}

func TestCalculateDuration_AcrossDaylightSavingChange(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skipf("timezone data not available: %v", err)
	}
	// clocks move forward on 2024-03-31 in Europe/Warsaw
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, warsaw)
	end := time.Date(2024, 4, 2, 0, 0, 0, 0, warsaw)

	assert.Equal(t, 4, CalculateDuration(start, end, allDays))
}

func TestCalculateDuration_EndInAnotherZone(t *testing.T) {
	start := date(2024, 3, 1)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60))

	assert.Equal(t, 31, CalculateDuration(start, end, allDays))
	assert.Equal(t, 21, CalculateDuration(start, end, weekdaysOnly))
	assert.Equal(t, 31, CalendarDays(start, end))
}

func TestCalendarDays(t *testing.T) {
	assert.Equal(t, 31, CalendarDays(date(2024, 3, 1), date(2024, 3, 31)))
	assert.Equal(t, 1, CalendarDays(date(2024, 3, 1), date(2024, 3, 1)))
	assert.Equal(t, 0, CalendarDays(date(2024, 3, 2), date(2024, 3, 1)))
	assert.Equal(t, 3652059, CalendarDays(date(1, 1, 1), date(9999, 12, 31)))
}

func TestOnWorkingDays(t *testing.T) {
	t.Run("skips days outside the policy", func(t *testing.T) {
		// given
		points, err := GenerateForecast(Constant, 2100, 21, date(2024, 3, 1), ForecastConfig{})
		assert.NoError(t, err)

		// when
		aligned := OnWorkingDays(points, weekdaysOnly)

		// then
		assert.Len(t, aligned, 21)
		assert.Equal(t, date(2024, 3, 1), aligned[0].Date)
		assert.Equal(t, date(2024, 3, 4), aligned[1].Date)
		assert.Equal(t, date(2024, 3, 29), aligned[20].Date)
		for i, p := range aligned {
			assert.Equal(t, i+1, p.DayIndex)
			assert.True(t, weekdaysOnly.IsWorkingDay(p.Date), "point %d on %s", i, p.Date)
		}
		assert.InDelta(t, 2100.0, TotalUnits(aligned), 1e-9)
		assert.Equal(t, date(2024, 3, 2), points[1].Date, "input is left untouched")
	})

	t.Run("starts on the first working day", func(t *testing.T) {
		points, err := GenerateForecast(Constant, 20, 2, date(2024, 3, 2), ForecastConfig{})
		assert.NoError(t, err)

		aligned := OnWorkingDays(points, weekdaysOnly)

		assert.Equal(t, date(2024, 3, 4), aligned[0].Date)
		assert.Equal(t, date(2024, 3, 5), aligned[1].Date)
	})

	t.Run("keeps every day for all days", func(t *testing.T) {
		points, err := GenerateForecast(RampUp, 70, 7, date(2024, 3, 1), ForecastConfig{})
		assert.NoError(t, err)

		assert.Equal(t, points, OnWorkingDays(points, allDays))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, OnWorkingDays(nil, weekdaysOnly))
	})
}

func TestCalculateDuration_Properties(t *testing.T) {
	start := date(2023, 12, 20)
	for length := 0; length < 60; length++ {
		end := start.AddDate(0, 0, length)

		all := CalculateDuration(start, end, allDays)
		weekdays := CalculateDuration(start, end, weekdaysOnly)
		customFull := CalculateDuration(start, end, WorkingDaysPolicy{Kind: Custom, IncludeSaturday: true, IncludeSunday: true})

		assert.Equal(t, length+1, all, "all days for length %d", length)
		assert.LessOrEqual(t, weekdays, all, "weekdays for length %d", length)
		assert.Equal(t, all, customFull, "custom superset for length %d", length)
	}
}

func TestParseWorkingDaysKind(t *testing.T) {
	kind, ok := ParseWorkingDaysKind(" ALL_DAYS ")
	assert.True(t, ok)
	assert.Equal(t, AllDays, kind)

	kind, ok = ParseWorkingDaysKind("sometimes")
	assert.False(t, ok)
	assert.Equal(t, WeekdaysOnly, kind)
}
