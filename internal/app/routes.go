package app

import (
	"github.com/fieldplan/fieldplan/internal/config"
	"github.com/fieldplan/fieldplan/internal/metrics"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Calculators
	r.HandleFunc("/api/schedule/duration", deps.ScheduleHandler.CalculateDuration).Methods("POST")
	r.HandleFunc("/api/schedule/forecast", deps.ScheduleHandler.GenerateForecast).Methods("POST")
	r.HandleFunc("/api/schedule/variance", deps.ScheduleHandler.CalculateVariance).Methods("POST")

	// Activities
	r.HandleFunc("/api/project/{projectId}/activity", deps.ActivityHandler.ListActivities).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/activity", deps.ActivityHandler.CreateActivity).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/phase", deps.ActivityHandler.ListPhases).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}", deps.ActivityHandler.GetActivity).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}", deps.ActivityHandler.UpdateActivity).Methods("PUT")
	r.HandleFunc("/api/activity/{activityId}", deps.ActivityHandler.DeleteActivity).Methods("DELETE")
	r.HandleFunc("/api/activity/{activityId}/forecast", deps.ActivityHandler.GetForecast).Methods("GET")

	// Daily log
	r.HandleFunc("/api/activity/{activityId}/log", deps.DailyLogHandler.ListEntries).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}/log", deps.DailyLogHandler.RecordEntry).Methods("POST")
	r.HandleFunc("/api/activity/{activityId}/log/totals", deps.DailyLogHandler.GetTotals).Methods("GET")
	r.HandleFunc("/api/activity/{activityId}/report", deps.DailyLogHandler.GetReport).Methods("GET")
	r.HandleFunc("/api/log/{uid}", deps.DailyLogHandler.GetEntry).Methods("GET")
	r.HandleFunc("/api/log/{uid}", deps.DailyLogHandler.UpdateEntry).Methods("PUT")
	r.HandleFunc("/api/log/{uid}", deps.DailyLogHandler.DeleteEntry).Methods("DELETE")

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
}
