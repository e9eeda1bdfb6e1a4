package sim

import "math"

// SecondsPerYear is a 365-day year; no leap-year adjustment.
const SecondsPerYear = 365 * 24 * 3600

// PerSecondRate converts an annual rate (0.05 for 5%) into the per-second
// rate that compounds back to it over SecondsPerYear:
// p = (1+r)^(1/SecondsPerYear) - 1.
func PerSecondRate(annual float64) float64 {
	return math.Expm1(math.Log1p(annual) / SecondsPerYear)
}

// Interest is debt*((1+p)^elapsed - 1) for a per-second rate p.
func Interest(debt, perSecond float64, elapsed int64) float64 {
	if debt <= 0 || perSecond == 0 || elapsed <= 0 {
		return 0
	}
	return debt * math.Expm1(float64(elapsed)*math.Log1p(perSecond))
}
