package daily_log

import (
	"time"

	"github.com/fieldplan/fieldplan/pkg/schedule"
	"github.com/google/uuid"
)

// Entry is what a site crew reports for one activity on one day.
type Entry struct {
	Uid            uuid.UUID
	ActivityId     int
	Date           time.Time
	UnitsCompleted float64
	Labour         []Labour
	Equipment      []Equipment
	Weather        Weather
	Location       Location
	Notes          string
}

// Labour is a trade on site. Hours are per worker.
type Labour struct {
	Trade   string  `json:"trade"`
	Workers int     `json:"workers"`
	Hours   float64 `json:"hours"`
}

// Equipment is a piece of plant on site. Hours are per unit.
type Equipment struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Hours float64 `json:"hours"`
}

type Weather struct {
	Condition       string
	TemperatureC    *float64
	PrecipitationMm *float64
	WindKph         *float64
}

type Location struct {
	Latitude    *float64
	Longitude   *float64
	Description string
}

func (e Entry) LabourHours() float64 {
	total := 0.0
	for _, l := range e.Labour {
		total += float64(l.Workers) * l.Hours
	}
	return total
}

func (e Entry) EquipmentHours() float64 {
	total := 0.0
	for _, eq := range e.Equipment {
		total += float64(eq.Count) * eq.Hours
	}
	return total
}

type Totals struct {
	Entries        int
	UnitsCompleted float64
	LabourHours    float64
	EquipmentHours float64
}

// Report compares the forecast of an activity with what was logged against it.
type Report struct {
	ActivityId   int
	ActivityName string
	Unit         string
	Method       schedule.ForecastMethod
	Days         []ReportDay
	Weeks        []WeekReport
	Summary      ReportSummary
}

type ReportDay struct {
	DayIndex int
	Date     time.Time
	schedule.Variance
	CumulativeForecasted float64
	CumulativeActual     float64
	CumulativeVariance   float64
}

type WeekReport struct {
	Week schedule.WeekNumber
	schedule.Variance
}

// ReportSummary covers forecast days up to and including AsOf.
type ReportSummary struct {
	AsOf time.Time
	schedule.Variance
	TotalUnits     float64
	PercentPlanned float64
	PercentActual  float64
	// UnplannedUnits were logged on days outside the forecast.
	UnplannedUnits float64
}
