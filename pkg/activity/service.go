package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldplan/fieldplan/internal/event_bus"
	"github.com/fieldplan/fieldplan/internal/metrics"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidActivity = errors.New("invalid activity")
var ErrInvalidDateRange = errors.New("end date must not be before start date")
var ErrParentNotFound = errors.New("parent activity not found")
var ErrNestingTooDeep = errors.New("sub-activities cannot have sub-activities")

// positionStep leaves room between activities for later reordering.
const positionStep = 100

type Service interface {
	Create(ctx context.Context, activity Activity) (Activity, error)
	Update(ctx context.Context, activity Activity) (Activity, error)
	Get(ctx context.Context, id int) (Activity, error)
	List(ctx context.Context, projectId int) ([]Activity, error)
	ListPhases(ctx context.Context, projectId int) ([]PhaseSummary, error)
	Delete(ctx context.Context, id int) (bool, error)
	Forecast(ctx context.Context, id int) ([]schedule.DailyForecastPoint, error)
	CrewRate(ctx context.Context, id int) (CrewRate, error)
}

// Defaults fill in the policy and method of activities that do not specify them.
type Defaults struct {
	WorkingDays    schedule.WorkingDaysPolicy
	ForecastMethod schedule.ForecastMethod
	// MaxSpanDays limits the calendar days between start and end.
	MaxSpanDays int
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	defaults Defaults
}

func NewService(repo Repository, eventBus *event_bus.EventBus, defaults Defaults) *ServiceImpl {
	if defaults.WorkingDays.Kind == "" {
		defaults.WorkingDays.Kind = schedule.WeekdaysOnly
	}
	if defaults.ForecastMethod == "" {
		defaults.ForecastMethod = schedule.Constant
	}
	if defaults.MaxSpanDays <= 0 {
		defaults.MaxSpanDays = schedule.DefaultMaxSpanDays
	}
	return &ServiceImpl{repo: repo, eventBus: eventBus, defaults: defaults}
}

func (s *ServiceImpl) Create(ctx context.Context, activity Activity) (Activity, error) {
	log.Debugf("creating activity %q in project %d", activity.Name, activity.ProjectId)
	activity, err := s.prepare(ctx, activity)
	if err != nil {
		return Activity{}, err
	}

	var created Activity
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		maxPosition, err := repo.MaxPosition(ctx, activity.ProjectId, activity.Phase)
		if err != nil {
			return err
		}
		activity.Position = maxPosition + positionStep
		created, err = repo.Create(ctx, activity)
		return err
	})
	if err != nil {
		return Activity{}, err
	}
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, activity Activity) (Activity, error) {
	log.Debugf("updating activity %d", activity.Id)
	existing, err := s.repo.Get(ctx, activity.Id)
	if err != nil {
		return Activity{}, err
	}
	activity.ProjectId = existing.ProjectId

	if activity.ParentId != 0 {
		children, err := s.repo.ListChildren(ctx, activity.Id)
		if err != nil {
			return Activity{}, err
		}
		if len(children) > 0 {
			return Activity{}, ErrNestingTooDeep
		}
	}

	activity, err = s.prepare(ctx, activity)
	if err != nil {
		return Activity{}, err
	}

	var updated Activity
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		activity.Position = existing.Position
		if activity.Phase != existing.Phase {
			maxPosition, err := repo.MaxPosition(ctx, activity.ProjectId, activity.Phase)
			if err != nil {
				return err
			}
			activity.Position = maxPosition + positionStep
		}
		updated, err = repo.Update(ctx, activity)
		return err
	})
	if err != nil {
		return Activity{}, err
	}

	if updated.schedulingChanged(existing) {
		err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ActivityRescheduledEvent, event_bus.ActivityRescheduled{
			Id:           updated.Id,
			ProjectId:    updated.ProjectId,
			StartDate:    updated.StartDate,
			EndDate:      updated.EndDate,
			DurationDays: updated.DurationDays,
			TotalUnits:   updated.Production.TotalUnits,
		}))
		if err != nil {
			log.Errorf("failed to publish activity rescheduled event: %v", err)
		}
	}
	return updated, nil
}

// prepare validates an activity, applies defaults and derives its duration.
func (s *ServiceImpl) prepare(ctx context.Context, activity Activity) (Activity, error) {
	activity.Name = strings.TrimSpace(activity.Name)
	activity.Phase = strings.TrimSpace(activity.Phase)
	if activity.Name == "" {
		return Activity{}, fmt.Errorf("%w: name is required", ErrInvalidActivity)
	}
	if activity.Production.TotalUnits < 0 {
		return Activity{}, fmt.Errorf("%w: total units must not be negative", ErrInvalidActivity)
	}
	if activity.Production.CrewSize < 0 || activity.Production.EquipmentCount < 0 {
		return Activity{}, fmt.Errorf("%w: crew size and equipment count must not be negative", ErrInvalidActivity)
	}
	if activity.StartDate.IsZero() || activity.EndDate.IsZero() {
		return Activity{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidActivity)
	}
	activity.StartDate = schedule.DateOnly(activity.StartDate)
	activity.EndDate = schedule.DateOnly(activity.EndDate)
	if activity.EndDate.Before(activity.StartDate) {
		return Activity{}, ErrInvalidDateRange
	}
	if span := schedule.CalendarDays(activity.StartDate, activity.EndDate); span > s.defaults.MaxSpanDays {
		return Activity{}, fmt.Errorf("%w: activity spans %d days, at most %d allowed", ErrInvalidActivity, span, s.defaults.MaxSpanDays)
	}

	if activity.WorkingDays.Kind == "" {
		activity.WorkingDays = s.defaults.WorkingDays
	}
	if activity.Production.Method == "" {
		activity.Production.Method = s.defaults.ForecastMethod
	}
	method, err := schedule.ParseForecastMethod(string(activity.Production.Method))
	if err != nil {
		return Activity{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	activity.Production.Method = method

	if activity.ParentId != 0 {
		if activity.ParentId == activity.Id {
			return Activity{}, fmt.Errorf("%w: activity cannot be its own parent", ErrInvalidActivity)
		}
		parent, err := s.repo.Get(ctx, activity.ParentId)
		if err != nil {
			if errors.Is(err, ErrActivityNotFound) {
				return Activity{}, ErrParentNotFound
			}
			return Activity{}, err
		}
		if parent.ProjectId != activity.ProjectId {
			return Activity{}, ErrParentNotFound
		}
		if parent.IsSubActivity() {
			return Activity{}, ErrNestingTooDeep
		}
	}

	activity.DurationDays = schedule.CalculateDuration(activity.StartDate, activity.EndDate, activity.WorkingDays)
	return activity, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Activity, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, projectId int) ([]Activity, error) {
	return s.repo.List(ctx, projectId)
}

// ListPhases summarises a project by phase. Units are summed over top-level activities only,
// since sub-activities break down the work of their parent.
func (s *ServiceImpl) ListPhases(ctx context.Context, projectId int) ([]PhaseSummary, error) {
	activities, err := s.repo.List(ctx, projectId)
	if err != nil {
		return nil, err
	}

	var phases []PhaseSummary
	index := make(map[string]int)
	for _, a := range activities {
		idx, ok := index[a.Phase]
		if !ok {
			idx = len(phases)
			index[a.Phase] = idx
			phases = append(phases, PhaseSummary{Phase: a.Phase, StartDate: a.StartDate, EndDate: a.EndDate})
		}
		p := &phases[idx]
		p.ActivityCount++
		if a.StartDate.Before(p.StartDate) {
			p.StartDate = a.StartDate
		}
		if a.EndDate.After(p.EndDate) {
			p.EndDate = a.EndDate
		}
		if !a.IsSubActivity() {
			p.TotalUnits += a.Production.TotalUnits
		}
	}
	for i := range phases {
		phases[i].DurationDays = schedule.CalculateDuration(phases[i].StartDate, phases[i].EndDate, s.defaults.WorkingDays)
	}
	return phases, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) (bool, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			log.Warnf("activity %d not deleted, it does not exist", id)
			return false, nil
		}
		return false, err
	}
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	removed := append(children, activity)
	for _, a := range removed {
		err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ActivityDeletedEvent, event_bus.ActivityDeleted{
			Id:        a.Id,
			ProjectId: a.ProjectId,
		}))
		if err != nil {
			log.Errorf("failed to publish activity deleted event for %d: %v", a.Id, err)
		}
	}
	return true, nil
}

// Forecast returns the daily production targets of an activity. An activity without
// working days in its range has an empty forecast.
func (s *ServiceImpl) Forecast(ctx context.Context, id int) ([]schedule.DailyForecastPoint, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ForecastFor(activity)
}

// ForecastFor computes the forecast of an already loaded activity. Points fall on the
// activity's working days, so the last one is the last working day of the range.
func ForecastFor(activity Activity) ([]schedule.DailyForecastPoint, error) {
	if activity.DurationDays < 1 {
		return []schedule.DailyForecastPoint{}, nil
	}
	total := activity.Production.TotalUnits
	points, err := schedule.GenerateForecast(
		activity.Production.Method,
		total,
		activity.DurationDays,
		activity.StartDate,
		schedule.ForecastConfig{UnitsPerDay: total / float64(activity.DurationDays)},
	)
	if err != nil {
		return nil, err
	}
	metrics.ForecastGenerated(string(activity.Production.Method))
	return schedule.OnWorkingDays(points, activity.WorkingDays), nil
}

func (s *ServiceImpl) CrewRate(ctx context.Context, id int) (CrewRate, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		return CrewRate{}, err
	}
	if activity.DurationDays < 1 {
		return CrewRate{}, nil
	}
	rate := CrewRate{UnitsPerDay: activity.Production.TotalUnits / float64(activity.DurationDays)}
	if activity.Production.CrewSize > 0 {
		rate.UnitsPerCrewDay = rate.UnitsPerDay / float64(activity.Production.CrewSize)
	}
	if activity.Production.EquipmentCount > 0 {
		rate.UnitsPerEquipmentDay = rate.UnitsPerDay / float64(activity.Production.EquipmentCount)
	}
	return rate, nil
}
