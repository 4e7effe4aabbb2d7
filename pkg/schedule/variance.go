package schedule

import "math"

type Variance struct {
	Forecasted      float64
	Actual          float64
	Variance        float64
	PercentVariance float64
}

// CalculateVariance compares an actual value against its forecast.
// A zero, negative or missing forecast yields 0 percent variance.
func CalculateVariance(forecasted, actual float64) Variance {
	forecasted = finiteOrZero(forecasted)
	actual = finiteOrZero(actual)

	v := actual - forecasted
	percent := 0.0
	if forecasted > 0 {
		percent = v / forecasted * 100
	}
	return Variance{
		Forecasted:      forecasted,
		Actual:          actual,
		Variance:        v,
		PercentVariance: percent,
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
