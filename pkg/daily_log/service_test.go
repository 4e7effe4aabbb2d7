package daily_log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldplan/fieldplan/internal/event_bus"
	"github.com/fieldplan/fieldplan/internal/utils"
	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activityId = 1

func date(s string) time.Time {
	d, err := time.Parse(schedule.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(v float64) *float64 {
	return &v
}

func excavation() activity.Activity {
	return activity.Activity{
		Id:           activityId,
		ProjectId:    7,
		Phase:        "Earthworks",
		Name:         "Bulk excavation",
		StartDate:    date("2024-03-01"),
		EndDate:      date("2024-03-31"),
		WorkingDays:  schedule.WorkingDaysPolicy{Kind: schedule.WeekdaysOnly},
		DurationDays: 21,
		Production: activity.Production{
			Unit:       "m3",
			TotalUnits: 2100,
			Method:     schedule.Constant,
		},
	}
}

func entry(day string, units float64) Entry {
	return Entry{
		ActivityId:     activityId,
		Date:           date(day),
		UnitsCompleted: units,
		Labour: []Labour{
			{Trade: "Operator", Workers: 2, Hours: 8},
			{Trade: "Labourer", Workers: 3, Hours: 7.5},
		},
		Equipment: []Equipment{
			{Name: "Excavator 30t", Count: 2, Hours: 6},
		},
		Weather: Weather{
			Condition:    "clear",
			TemperatureC: ptr(12.5),
		},
		Location: Location{
			Latitude:    ptr(51.5072),
			Longitude:   ptr(-0.1276),
			Description: "North cut",
		},
		Notes: "Hit rock at grid C4",
	}
}

type serviceFixture struct {
	ctx        context.Context
	service    *ServiceImpl
	repo       *RepositoryStub
	activities *ActivityReaderStub
	clock      *utils.MockClock
	bus        *event_bus.EventBus
}

func setupServiceTest(t *testing.T) serviceFixture {
	t.Helper()
	repo := NewRepositoryStub()
	activities := NewActivityReaderStub()
	activities.SetActivity(excavation())
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)}
	bus := event_bus.NewEventBus()
	return serviceFixture{
		ctx:        context.Background(),
		service:    NewService(repo, activities, clock, bus),
		repo:       repo,
		activities: activities,
		clock:      clock,
		bus:        bus,
	}
}

func TestServiceImpl_Record(t *testing.T) {
	t.Run("should store entry with generated uid", func(t *testing.T) {
		// given
		f := setupServiceTest(t)

		// when
		created, err := f.service.Record(f.ctx, entry("2024-03-04", 95))

		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.Uid)
		stored, err := f.repo.Get(f.ctx, created.Uid)
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("should accept today", func(t *testing.T) {
		f := setupServiceTest(t)

		_, err := f.service.Record(f.ctx, entry("2024-03-10", 10))

		assert.NoError(t, err)
	})

	t.Run("should reject future date", func(t *testing.T) {
		f := setupServiceTest(t)

		_, err := f.service.Record(f.ctx, entry("2024-03-11", 10))

		assert.ErrorIs(t, err, ErrFutureDate)
	})

	t.Run("should reject unknown activity", func(t *testing.T) {
		f := setupServiceTest(t)
		e := entry("2024-03-04", 10)
		e.ActivityId = 99

		_, err := f.service.Record(f.ctx, e)

		assert.ErrorIs(t, err, activity.ErrActivityNotFound)
	})

	t.Run("should reject second entry for the same day", func(t *testing.T) {
		f := setupServiceTest(t)
		_, err := f.service.Record(f.ctx, entry("2024-03-04", 10))
		require.NoError(t, err)

		_, err = f.service.Record(f.ctx, entry("2024-03-04", 20))

		assert.ErrorIs(t, err, ErrEntryAlreadyExists)
	})

	t.Run("should reject invalid values", func(t *testing.T) {
		f := setupServiceTest(t)
		cases := map[string]func(e *Entry){
			"negative units":      func(e *Entry) { e.UnitsCompleted = -1 },
			"missing date":        func(e *Entry) { e.Date = time.Time{} },
			"blank trade":         func(e *Entry) { e.Labour[0].Trade = " " },
			"too many hours":      func(e *Entry) { e.Labour[0].Hours = 25 },
			"negative equipment":  func(e *Entry) { e.Equipment[0].Count = -1 },
			"latitude too large":  func(e *Entry) { e.Location.Latitude = ptr(91) },
			"longitude too small": func(e *Entry) { e.Location.Longitude = ptr(-181) },
			"latitude only":       func(e *Entry) { e.Location.Longitude = nil },
			"negative rain":       func(e *Entry) { e.Weather.PrecipitationMm = ptr(-2) },
		}
		for name, modify := range cases {
			t.Run(name, func(t *testing.T) {
				e := entry("2024-03-04", 10)
				modify(&e)

				_, err := f.service.Record(f.ctx, e)

				assert.ErrorIs(t, err, ErrInvalidEntry)
			})
		}
	})
}

func TestServiceImpl_Update(t *testing.T) {
	t.Run("should keep activity and change values", func(t *testing.T) {
		// given
		f := setupServiceTest(t)
		created, err := f.service.Record(f.ctx, entry("2024-03-04", 10))
		require.NoError(t, err)

		// when
		change := entry("2024-03-05", 30)
		change.Uid = created.Uid
		change.ActivityId = 42
		updated, err := f.service.Update(f.ctx, change)

		// then
		require.NoError(t, err)
		assert.Equal(t, activityId, updated.ActivityId)
		assert.Equal(t, date("2024-03-05"), updated.Date)
		assert.Equal(t, 30.0, updated.UnitsCompleted)
	})

	t.Run("should not move onto a logged day", func(t *testing.T) {
		f := setupServiceTest(t)
		_, err := f.service.Record(f.ctx, entry("2024-03-04", 10))
		require.NoError(t, err)
		second, err := f.service.Record(f.ctx, entry("2024-03-05", 10))
		require.NoError(t, err)

		second.Date = date("2024-03-04")
		_, err = f.service.Update(f.ctx, second)

		assert.ErrorIs(t, err, ErrEntryAlreadyExists)
	})

	t.Run("should return not found", func(t *testing.T) {
		f := setupServiceTest(t)
		e := entry("2024-03-04", 10)
		e.Uid = uuid.New()

		_, err := f.service.Update(f.ctx, e)

		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestServiceImpl_ListAndTotals(t *testing.T) {
	// given
	f := setupServiceTest(t)
	for _, day := range []string{"2024-03-06", "2024-03-04", "2024-03-05"} {
		_, err := f.service.Record(f.ctx, entry(day, 100))
		require.NoError(t, err)
	}

	// when
	all, err := f.service.List(f.ctx, activityId, time.Time{}, time.Time{})
	require.NoError(t, err)
	ranged, err := f.service.List(f.ctx, activityId, date("2024-03-05"), date("2024-03-06"))
	require.NoError(t, err)
	totals, err := f.service.Totals(f.ctx, activityId, time.Time{}, time.Time{})
	require.NoError(t, err)

	// then
	require.Len(t, all, 3)
	assert.Equal(t, date("2024-03-04"), all[0].Date)
	assert.Equal(t, date("2024-03-06"), all[2].Date)
	assert.Len(t, ranged, 2)

	assert.Equal(t, 3, totals.Entries)
	assert.InDelta(t, 300.0, totals.UnitsCompleted, 1e-9)
	assert.InDelta(t, 3*(2*8+3*7.5), totals.LabourHours, 1e-9)
	assert.InDelta(t, 3*(2*6.0), totals.EquipmentHours, 1e-9)

	_, err = f.service.List(f.ctx, 99, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, activity.ErrActivityNotFound)
}

func TestServiceImpl_Report(t *testing.T) {
	f := setupServiceTest(t)
	_, err := f.service.Record(f.ctx, entry("2024-03-01", 120))
	require.NoError(t, err)

	report, err := f.service.Report(f.ctx, activityId)

	require.NoError(t, err)
	require.Len(t, report.Days, 21)
	assert.InDelta(t, 20.0, report.Days[0].Variance.Variance, 1e-9)
	assert.Equal(t, date("2024-03-10"), report.Summary.AsOf)
	// working days 03-01 and 03-04 to 03-08
	assert.InDelta(t, 600.0, report.Summary.Forecasted, 1e-9)
	assert.InDelta(t, 120.0, report.Summary.Actual, 1e-9)

	_, err = f.service.Report(f.ctx, 99)
	assert.ErrorIs(t, err, activity.ErrActivityNotFound)
}

func TestServiceImpl_ActivityEvents(t *testing.T) {
	t.Run("should delete entries of deleted activity", func(t *testing.T) {
		// given
		f := setupServiceTest(t)
		_, err := f.service.Record(f.ctx, entry("2024-03-04", 10))
		require.NoError(t, err)
		_, err = f.service.Record(f.ctx, entry("2024-03-05", 10))
		require.NoError(t, err)

		// when
		err = f.bus.Publish(event_bus.NewEvent(f.ctx, event_bus.ActivityDeletedEvent, event_bus.ActivityDeleted{Id: activityId, ProjectId: 7}))

		// then
		require.NoError(t, err)
		remaining, err := f.repo.List(f.ctx, activityId, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("should keep entries of rescheduled activity", func(t *testing.T) {
		f := setupServiceTest(t)
		_, err := f.service.Record(f.ctx, entry("2024-03-04", 10))
		require.NoError(t, err)

		err = f.bus.Publish(event_bus.NewEvent(f.ctx, event_bus.ActivityRescheduledEvent, event_bus.ActivityRescheduled{
			Id:        activityId,
			StartDate: date("2024-04-01"),
			EndDate:   date("2024-04-30"),
		}))

		require.NoError(t, err)
		remaining, err := f.repo.List(f.ctx, activityId, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("should surface reader errors", func(t *testing.T) {
		f := setupServiceTest(t)
		boom := errors.New("boom")
		f.activities.SetGetError(boom)

		_, err := f.service.Record(f.ctx, entry("2024-03-04", 10))

		assert.ErrorIs(t, err, boom)
	})
}
