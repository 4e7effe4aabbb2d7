package app

import (
	"testing"

	"github.com/fieldplan/fieldplan/internal/config"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleDefaults(t *testing.T) {
	t.Run("maps configured policy and method", func(t *testing.T) {
		defaults, err := scheduleDefaults(config.Schedule{
			WorkingDays:     "custom",
			IncludeSaturday: true,
			ForecastMethod:  "s_curve",
			MaxSpanDays:     365,
		})

		require.NoError(t, err)
		assert.Equal(t, schedule.WorkingDaysPolicy{Kind: schedule.Custom, IncludeSaturday: true}, defaults.WorkingDays)
		assert.Equal(t, schedule.SCurve, defaults.ForecastMethod)
		assert.Equal(t, 365, defaults.MaxSpanDays)
	})

	t.Run("uses application defaults", func(t *testing.T) {
		defaults, err := scheduleDefaults(config.Defaults().Schedule)

		require.NoError(t, err)
		assert.Equal(t, schedule.WeekdaysOnly, defaults.WorkingDays.Kind)
		assert.Equal(t, schedule.Constant, defaults.ForecastMethod)
		assert.Equal(t, schedule.DefaultMaxSpanDays, defaults.MaxSpanDays)
	})

	t.Run("rejects unknown policy", func(t *testing.T) {
		_, err := scheduleDefaults(config.Schedule{WorkingDays: "fortnightly", ForecastMethod: "constant", MaxSpanDays: 365})

		assert.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := scheduleDefaults(config.Schedule{WorkingDays: "all_days", ForecastMethod: "exponential", MaxSpanDays: 365})

		assert.Error(t, err)
	})

	t.Run("rejects span limit above the built-in one", func(t *testing.T) {
		for _, days := range []int{0, schedule.DefaultMaxSpanDays + 1} {
			_, err := scheduleDefaults(config.Schedule{WorkingDays: "all_days", ForecastMethod: "constant", MaxSpanDays: days})

			assert.Error(t, err, "max span %d", days)
		}
	})
}
