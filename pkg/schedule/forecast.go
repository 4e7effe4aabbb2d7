package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrInvalidArgument = errors.New("invalid argument")

type ForecastMethod string

const (
	Constant ForecastMethod = "constant"
	RampUp   ForecastMethod = "ramp_up"
	RampDown ForecastMethod = "ramp_down"
	SCurve   ForecastMethod = "s_curve"
)

// rampStartRatio is the day-one rate of a ramp relative to its final-day rate.
const rampStartRatio = 0.5

// sCurvePhases describes the S-curve profile as consecutive phases over the activity span.
// Each phase covers a share of the span and moves the relative rate linearly from..to.
var sCurvePhases = []struct {
	share    float64
	from, to float64
}{
	{share: 0.20, from: 0.2, to: 0.6}, // mobilization
	{share: 0.25, from: 0.6, to: 1.0}, // acceleration
	{share: 0.30, from: 1.0, to: 1.0}, // peak
	{share: 0.25, from: 1.0, to: 0.2}, // closeout
}

type ForecastConfig struct {
	UnitsPerDay float64
}

type DailyForecastPoint struct {
	DayIndex    int
	Date        time.Time
	TargetUnits float64
}

func ParseForecastMethod(s string) (ForecastMethod, error) {
	method := ForecastMethod(strings.ToLower(strings.TrimSpace(s)))
	switch method {
	case Constant, RampUp, RampDown, SCurve:
		return method, nil
	}
	return "", fmt.Errorf("%w: unknown forecast method %q", ErrInvalidArgument, s)
}

// GenerateForecast distributes totalUnits over durationDays consecutive days starting at startDate.
// The returned points always sum to totalUnits.
func GenerateForecast(
	method ForecastMethod,
	totalUnits float64,
	durationDays int,
	startDate time.Time,
	config ForecastConfig,
) ([]DailyForecastPoint, error) {
	if durationDays < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 day, got %d", ErrInvalidArgument, durationDays)
	}
	if totalUnits < 0 || math.IsNaN(totalUnits) || math.IsInf(totalUnits, 0) {
		return nil, fmt.Errorf("%w: total units must be a non-negative number, got %v", ErrInvalidArgument, totalUnits)
	}

	var weights []float64
	switch method {
	case Constant:
		if totalUnits == 0 && config.UnitsPerDay > 0 && !math.IsInf(config.UnitsPerDay, 0) {
			totalUnits = config.UnitsPerDay * float64(durationDays)
			if math.IsInf(totalUnits, 0) {
				return nil, fmt.Errorf("%w: %v units per day over %d days overflows", ErrInvalidArgument, config.UnitsPerDay, durationDays)
			}
		}
		weights = constantWeights(durationDays)
	case RampUp:
		weights = rampWeights(durationDays)
	case RampDown:
		weights = rampWeights(durationDays)
		reverse(weights)
	case SCurve:
		weights = sCurveWeights(durationDays)
	default:
		return nil, fmt.Errorf("%w: unknown forecast method %q", ErrInvalidArgument, method)
	}

	return distribute(totalUnits, weights, DateOnly(startDate)), nil
}

func distribute(totalUnits float64, weights []float64, start time.Time) []DailyForecastPoint {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}

	points := make([]DailyForecastPoint, len(weights))
	for i, w := range weights {
		points[i] = DailyForecastPoint{
			DayIndex:    i + 1,
			Date:        AddDays(start, i),
			TargetUnits: totalUnits * w / sum,
		}
	}
	return points
}

func constantWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// rampWeights rises linearly from rampStartRatio on day one to 1 on the last day.
func rampWeights(n int) []float64 {
	weights := make([]float64, n)
	if n == 1 {
		weights[0] = 1
		return weights
	}
	step := (1 - rampStartRatio) / float64(n-1)
	for i := range weights {
		weights[i] = rampStartRatio + step*float64(i)
	}
	return weights
}

// sCurveWeights samples the phase profile at the midpoint of every day.
func sCurveWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = sCurveRate((float64(i) + 0.5) / float64(n))
	}
	return weights
}

func sCurveRate(x float64) float64 {
	start := 0.0
	for _, phase := range sCurvePhases {
		end := start + phase.share
		if x < end {
			return phase.from + (phase.to-phase.from)*(x-start)/phase.share
		}
		start = end
	}
	return sCurvePhases[len(sCurvePhases)-1].to
}

func reverse(values []float64) {
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
}

// TotalUnits sums the target units of a forecast series.
func TotalUnits(points []DailyForecastPoint) float64 {
	total := 0.0
	for _, p := range points {
		total += p.TargetUnits
	}
	return total
}
