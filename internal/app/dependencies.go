package app

import (
	"fmt"

	"github.com/fieldplan/fieldplan/internal/config"
	"github.com/fieldplan/fieldplan/internal/event_bus"
	"github.com/fieldplan/fieldplan/internal/utils"
	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/fieldplan/fieldplan/pkg/daily_log"
	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	ScheduleHandler *schedule.Handler

	ActivityRepo    activity.Repository
	ActivityService *activity.ServiceImpl
	ActivityHandler *activity.Handler

	DailyLogRepo      daily_log.Repository
	DailyLogService   *daily_log.ServiceImpl
	CsvReportRenderer *daily_log.CsvReportRendererImpl
	DailyLogHandler   *daily_log.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	defaults, err := scheduleDefaults(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.ScheduleHandler = schedule.NewHandler(defaults.WorkingDays, defaults.MaxSpanDays)

	deps.ActivityRepo = activity.NewRepository(db)
	deps.ActivityService = activity.NewService(deps.ActivityRepo, deps.EventBus, defaults)
	deps.ActivityHandler = activity.NewHandler(deps.ActivityService)

	deps.DailyLogRepo = daily_log.NewRepository(db)
	deps.DailyLogService = daily_log.NewService(deps.DailyLogRepo, deps.ActivityService, deps.Clock, deps.EventBus)
	deps.CsvReportRenderer = daily_log.NewCsvReportRenderer()
	deps.DailyLogHandler = daily_log.NewHandler(deps.DailyLogService, deps.CsvReportRenderer)

	return deps, nil
}

func scheduleDefaults(cfg config.Schedule) (activity.Defaults, error) {
	kind, ok := schedule.ParseWorkingDaysKind(cfg.WorkingDays)
	if !ok {
		return activity.Defaults{}, fmt.Errorf("unknown working days policy in config: %q", cfg.WorkingDays)
	}
	method, err := schedule.ParseForecastMethod(cfg.ForecastMethod)
	if err != nil {
		return activity.Defaults{}, fmt.Errorf("invalid forecast method in config: %w", err)
	}
	if cfg.MaxSpanDays < 1 || cfg.MaxSpanDays > schedule.DefaultMaxSpanDays {
		return activity.Defaults{}, fmt.Errorf("max span days in config must be between 1 and %d, got %d", schedule.DefaultMaxSpanDays, cfg.MaxSpanDays)
	}
	return activity.Defaults{
		WorkingDays: schedule.WorkingDaysPolicy{
			Kind:            kind,
			IncludeSaturday: cfg.IncludeSaturday,
			IncludeSunday:   cfg.IncludeSunday,
		},
		ForecastMethod: method,
		MaxSpanDays:    cfg.MaxSpanDays,
	}, nil
}
