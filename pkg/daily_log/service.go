package daily_log

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fieldplan/fieldplan/internal/event_bus"
	"github.com/fieldplan/fieldplan/internal/metrics"
	"github.com/fieldplan/fieldplan/internal/utils"
	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidEntry = errors.New("invalid daily log entry")
var ErrFutureDate = errors.New("daily log entry date is in the future")

const maxHoursPerDay = 24

type Service interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	Update(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, uid uuid.UUID) (Entry, error)
	Delete(ctx context.Context, uid uuid.UUID) (bool, error)
	List(ctx context.Context, activityId int, from, to time.Time) ([]Entry, error)
	Totals(ctx context.Context, activityId int, from, to time.Time) (Totals, error)
	Report(ctx context.Context, activityId int) (Report, error)
}

type ActivityReader interface {
	Get(ctx context.Context, id int) (activity.Activity, error)
}

type ServiceImpl struct {
	repo       Repository
	activities ActivityReader
	clock      utils.Clock
	location   *time.Location
}

func NewService(repo Repository, activities ActivityReader, clock utils.Clock, eventBus *event_bus.EventBus) *ServiceImpl {
	service := &ServiceImpl{repo: repo, activities: activities, clock: clock, location: time.UTC}
	event_bus.SubscribeTyped[event_bus.ActivityDeleted](
		eventBus,
		event_bus.ActivityDeletedEvent,
		func(e event_bus.EventT[event_bus.ActivityDeleted]) error {
			count, err := service.repo.DeleteByActivity(e.Context(), e.Data.Id)
			if err != nil {
				log.Errorf("failed to delete daily log of activity %d: %v", e.Data.Id, err)
				return err
			}
			log.Debugf("deleted %d daily log entries of activity %d", count, e.Data.Id)
			return nil
		},
	)
	event_bus.SubscribeTyped[event_bus.ActivityRescheduled](
		eventBus,
		event_bus.ActivityRescheduledEvent,
		func(e event_bus.EventT[event_bus.ActivityRescheduled]) error {
			return service.handleActivityRescheduled(e.Context(), e.Data)
		},
	)
	return service
}

func (s *ServiceImpl) handleActivityRescheduled(ctx context.Context, data event_bus.ActivityRescheduled) error {
	entries, err := s.repo.List(ctx, data.Id, time.Time{}, time.Time{})
	if err != nil {
		log.Errorf("failed to check daily log of rescheduled activity %d: %v", data.Id, err)
		return err
	}
	outside := 0
	for _, e := range entries {
		if e.Date.Before(data.StartDate) || e.Date.After(data.EndDate) {
			outside++
		}
	}
	if outside > 0 {
		log.Warnf("activity %d rescheduled to %s..%s, %d daily log entries now fall outside it",
			data.Id, data.StartDate.Format(schedule.DateLayout), data.EndDate.Format(schedule.DateLayout), outside)
	}
	return nil
}

func (s *ServiceImpl) today() time.Time {
	return utils.Today(s.clock, s.location)
}

func (s *ServiceImpl) Record(ctx context.Context, entry Entry) (Entry, error) {
	a, err := s.activities.Get(ctx, entry.ActivityId)
	if err != nil {
		return Entry{}, err
	}
	entry, err = s.validate(entry)
	if err != nil {
		return Entry{}, err
	}
	if entry.Date.Before(a.StartDate) || entry.Date.After(a.EndDate) {
		log.Debugf("daily log for activity %d on %s is outside its schedule", a.Id, entry.Date.Format(schedule.DateLayout))
	}

	entry.Uid = uuid.Nil
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	metrics.DailyLogRecorded()
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, entry Entry) (Entry, error) {
	existing, err := s.repo.Get(ctx, entry.Uid)
	if err != nil {
		return Entry{}, err
	}
	entry.ActivityId = existing.ActivityId
	entry, err = s.validate(entry)
	if err != nil {
		return Entry{}, err
	}
	return s.repo.Update(ctx, entry)
}

func (s *ServiceImpl) validate(entry Entry) (Entry, error) {
	if entry.Date.IsZero() {
		return Entry{}, fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	entry.Date = schedule.DateOnly(entry.Date)
	if entry.Date.After(s.today()) {
		return Entry{}, ErrFutureDate
	}
	if entry.UnitsCompleted < 0 || math.IsNaN(entry.UnitsCompleted) || math.IsInf(entry.UnitsCompleted, 0) {
		return Entry{}, fmt.Errorf("%w: units completed must be a non-negative number", ErrInvalidEntry)
	}
	for _, l := range entry.Labour {
		if strings.TrimSpace(l.Trade) == "" || l.Workers < 0 || l.Hours < 0 || l.Hours > maxHoursPerDay {
			return Entry{}, fmt.Errorf("%w: labour %q needs a trade, non-negative workers and 0-24 hours", ErrInvalidEntry, l.Trade)
		}
	}
	for _, eq := range entry.Equipment {
		if strings.TrimSpace(eq.Name) == "" || eq.Count < 0 || eq.Hours < 0 || eq.Hours > maxHoursPerDay {
			return Entry{}, fmt.Errorf("%w: equipment %q needs a name, non-negative count and 0-24 hours", ErrInvalidEntry, eq.Name)
		}
	}
	if lat := entry.Location.Latitude; lat != nil && (*lat < -90 || *lat > 90) {
		return Entry{}, fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidEntry)
	}
	if lon := entry.Location.Longitude; lon != nil && (*lon < -180 || *lon > 180) {
		return Entry{}, fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidEntry)
	}
	if (entry.Location.Latitude == nil) != (entry.Location.Longitude == nil) {
		return Entry{}, fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidEntry)
	}
	if p := entry.Weather.PrecipitationMm; p != nil && *p < 0 {
		return Entry{}, fmt.Errorf("%w: precipitation must not be negative", ErrInvalidEntry)
	}
	if w := entry.Weather.WindKph; w != nil && *w < 0 {
		return Entry{}, fmt.Errorf("%w: wind speed must not be negative", ErrInvalidEntry)
	}
	return entry, nil
}

func (s *ServiceImpl) Get(ctx context.Context, uid uuid.UUID) (Entry, error) {
	return s.repo.Get(ctx, uid)
}

func (s *ServiceImpl) Delete(ctx context.Context, uid uuid.UUID) (bool, error) {
	return s.repo.Delete(ctx, uid)
}

func (s *ServiceImpl) List(ctx context.Context, activityId int, from, to time.Time) ([]Entry, error) {
	if _, err := s.activities.Get(ctx, activityId); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, activityId, from, to)
}

func (s *ServiceImpl) Totals(ctx context.Context, activityId int, from, to time.Time) (Totals, error) {
	entries, err := s.List(ctx, activityId, from, to)
	if err != nil {
		return Totals{}, err
	}
	var totals Totals
	for _, e := range entries {
		totals.Entries++
		totals.UnitsCompleted += e.UnitsCompleted
		totals.LabourHours += e.LabourHours()
		totals.EquipmentHours += e.EquipmentHours()
	}
	return totals, nil
}

func (s *ServiceImpl) Report(ctx context.Context, activityId int) (Report, error) {
	a, err := s.activities.Get(ctx, activityId)
	if err != nil {
		return Report{}, err
	}
	points, err := activity.ForecastFor(a)
	if err != nil {
		return Report{}, fmt.Errorf("could not forecast activity %d: %w", activityId, err)
	}
	entries, err := s.repo.List(ctx, activityId, time.Time{}, time.Time{})
	if err != nil {
		return Report{}, err
	}
	return BuildReport(a, points, entries, s.today()), nil
}
