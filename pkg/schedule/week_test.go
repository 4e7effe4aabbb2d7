package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekNumberFromDate(t *testing.T) {
	tests := []struct {
		name         string
		date         time.Time
		weekStartDay time.Weekday
		want         WeekNumber
	}{
		{name: "monday start mid week", date: date(2024, 3, 6), weekStartDay: time.Monday, want: WeekNumber{Year: 2024, Week: 10}},
		{name: "sunday start on sunday stays in its ISO week", date: date(2024, 3, 10), weekStartDay: time.Sunday, want: WeekNumber{Year: 2024, Week: 10}},
		{name: "monday start on sunday", date: date(2024, 3, 10), weekStartDay: time.Monday, want: WeekNumber{Year: 2024, Week: 10}},
		{name: "year boundary", date: date(2024, 12, 30), weekStartDay: time.Monday, want: WeekNumber{Year: 2025, Week: 1}},
		{name: "invalid start day falls back to monday", date: date(2024, 3, 6), weekStartDay: time.Weekday(9), want: WeekNumber{Year: 2024, Week: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekNumberFromDate(tt.date, tt.weekStartDay))
		})
	}
}

func TestWeekNumberFromString(t *testing.T) {
	week, err := WeekNumberFromString("2024-W09")
	require.NoError(t, err)
	assert.Equal(t, WeekNumber{Year: 2024, Week: 9}, week)
	assert.Equal(t, "2024-W09", week.String())

	for _, invalid := range []string{"2024-09", "abcd-W01", "2024-Wxx", "2024-W54"} {
		_, err := WeekNumberFromString(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestWeekNumber_Ordering(t *testing.T) {
	w1 := WeekNumber{Year: 2024, Week: 52}
	w2 := WeekNumber{Year: 2025, Week: 1}

	assert.True(t, w1.Before(w2))
	assert.True(t, w2.After(w1))
	assert.False(t, w1.After(w2))
	assert.True(t, w1.Equal(WeekNumber{Year: 2024, Week: 52}))
}
