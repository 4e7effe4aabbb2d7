package daily_log

import (
	"testing"

	"github.com/fieldplan/fieldplan/pkg/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoDayReport(t *testing.T) Report {
	t.Helper()
	a := excavation()
	a.EndDate = date("2024-03-04")
	a.DurationDays = 2
	a.Production.TotalUnits = 200
	points, err := activity.ForecastFor(a)
	require.NoError(t, err)
	entries := []Entry{
		{ActivityId: a.Id, Date: date("2024-03-01"), UnitsCompleted: 90},
		{ActivityId: a.Id, Date: date("2024-03-04"), UnitsCompleted: 125},
	}
	return BuildReport(a, points, entries, date("2024-03-04"))
}

func reportWithoutForecast() Report {
	a := excavation()
	a.Production.TotalUnits = 0
	entries := []Entry{{ActivityId: a.Id, Date: date("2024-03-02"), UnitsCompleted: 12.5}}
	return BuildReport(a, nil, entries, date("2024-03-02"))
}

func TestCsvReportRendererImpl_RenderReport(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{
			name:   "RenderReport with days and weeks",
			report: twoDayReport(t),
			want: "Day,Date,Forecast,Actual,Variance,Variance %,Cumulative forecast,Cumulative actual,Cumulative variance\n" +
				"1,2024-03-01,100.00,90.00,-10.00,-10.00,100.00,90.00,-10.00\n" +
				"2,2024-03-04,100.00,125.00,25.00,25.00,200.00,215.00,15.00\n" +
				"Week,2024-W09,100.00,90.00,-10.00,-10.00\n" +
				"Week,2024-W10,100.00,125.00,25.00,25.00\n" +
				"To date,2024-03-04,200.00,215.00,15.00,7.50\n" +
				"Unplanned,,,0.00\n" +
				"Total m3,,200.00\n",
		},
		{
			name:   "RenderReport without forecast",
			report: reportWithoutForecast(),
			want: "Day,Date,Forecast,Actual,Variance,Variance %,Cumulative forecast,Cumulative actual,Cumulative variance\n" +
				"To date,2024-03-02,0.00,12.50,12.50,0.00\n" +
				"Unplanned,,,12.50\n" +
				"Total m3,,0.00\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := NewCsvReportRenderer()

			got, err := renderer.RenderReport(tt.report)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCsvReportRendererImpl_DayColumnMatchesDayIndex(t *testing.T) {
	report := twoDayReport(t)

	got, err := NewCsvReportRenderer().RenderReport(report)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Days[0].DayIndex)
	assert.Contains(t, got, "\n1,2024-03-01,")
	assert.Contains(t, got, "\n2,2024-03-04,")
	assert.NotContains(t, got, "\n3,")
}
