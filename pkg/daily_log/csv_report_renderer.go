package daily_log

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/fieldplan/fieldplan/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

type CsvReportRendererImpl struct {
}

func NewCsvReportRenderer() *CsvReportRendererImpl {
	return &CsvReportRendererImpl{}
}

var csvHeader = []string{
	"Day",
	"Date",
	"Forecast",
	"Actual",
	"Variance",
	"Variance %",
	"Cumulative forecast",
	"Cumulative actual",
	"Cumulative variance",
}

// RenderReport writes one row per forecast day followed by per-week totals and the summary to date.
func (t *CsvReportRendererImpl) RenderReport(report Report) (string, error) {
	data := make([][]string, 0, len(report.Days)+len(report.Weeks)+4)
	data = append(data, csvHeader)
	for _, day := range report.Days {
		data = append(data, []string{
			strconv.Itoa(day.DayIndex),
			day.Date.Format(schedule.DateLayout),
			unitsToString(day.Forecasted),
			unitsToString(day.Actual),
			unitsToString(day.Variance.Variance),
			unitsToString(day.PercentVariance),
			unitsToString(day.CumulativeForecasted),
			unitsToString(day.CumulativeActual),
			unitsToString(day.CumulativeVariance),
		})
	}

	for _, week := range report.Weeks {
		data = append(data, []string{
			"Week",
			week.Week.String(),
			unitsToString(week.Forecasted),
			unitsToString(week.Actual),
			unitsToString(week.Variance.Variance),
			unitsToString(week.PercentVariance),
		})
	}

	summary := report.Summary
	data = append(data,
		[]string{
			"To date",
			summary.AsOf.Format(schedule.DateLayout),
			unitsToString(summary.Forecasted),
			unitsToString(summary.Actual),
			unitsToString(summary.Variance.Variance),
			unitsToString(summary.PercentVariance),
		},
		[]string{"Unplanned", "", "", unitsToString(summary.UnplannedUnits)},
		[]string{"Total " + report.Unit, "", unitsToString(summary.TotalUnits)},
	)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func unitsToString(units float64) string {
	return strconv.FormatFloat(units, 'f', 2, 64)
}
