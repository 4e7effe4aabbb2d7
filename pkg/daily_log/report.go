package daily_log

import (
	"time"

	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/fieldplan/fieldplan/pkg/schedule"
)

// BuildReport lines up forecast points with the logged entries of the same dates.
// Weeks start on Monday.
func BuildReport(a activity.Activity, points []schedule.DailyForecastPoint, entries []Entry, today time.Time) Report {
	today = schedule.DateOnly(today)
	actuals := make(map[string]float64, len(entries))
	for _, e := range entries {
		actuals[e.Date.Format(schedule.DateLayout)] += e.UnitsCompleted
	}

	report := Report{
		ActivityId:   a.Id,
		ActivityName: a.Name,
		Unit:         a.Production.Unit,
		Method:       a.Production.Method,
		Days:         make([]ReportDay, 0, len(points)),
		Summary: ReportSummary{
			AsOf:       today,
			TotalUnits: a.Production.TotalUnits,
		},
	}

	var cumForecast, cumActual, toDateForecast, toDateActual float64
	weekIndex := make(map[schedule.WeekNumber]int)
	var weekTotals [][2]float64
	for _, p := range points {
		date := schedule.DateOnly(p.Date)
		key := date.Format(schedule.DateLayout)
		actual, logged := actuals[key]
		if logged {
			delete(actuals, key)
		}
		cumForecast += p.TargetUnits
		cumActual += actual
		report.Days = append(report.Days, ReportDay{
			DayIndex:             p.DayIndex,
			Date:                 date,
			Variance:             schedule.CalculateVariance(p.TargetUnits, actual),
			CumulativeForecasted: cumForecast,
			CumulativeActual:     cumActual,
			CumulativeVariance:   cumActual - cumForecast,
		})

		if !date.After(today) {
			toDateForecast += p.TargetUnits
			toDateActual += actual
		}

		week := schedule.WeekNumberFromDate(date, time.Monday)
		idx, ok := weekIndex[week]
		if !ok {
			idx = len(weekTotals)
			weekIndex[week] = idx
			weekTotals = append(weekTotals, [2]float64{})
			report.Weeks = append(report.Weeks, WeekReport{Week: week})
		}
		weekTotals[idx][0] += p.TargetUnits
		weekTotals[idx][1] += actual
	}
	for i := range report.Weeks {
		report.Weeks[i].Variance = schedule.CalculateVariance(weekTotals[i][0], weekTotals[i][1])
	}

	for _, units := range actuals {
		report.Summary.UnplannedUnits += units
	}
	report.Summary.Variance = schedule.CalculateVariance(toDateForecast, toDateActual+report.Summary.UnplannedUnits)
	if total := a.Production.TotalUnits; total > 0 {
		report.Summary.PercentPlanned = toDateForecast / total * 100
		report.Summary.PercentActual = report.Summary.Actual / total * 100
	}
	return report
}
