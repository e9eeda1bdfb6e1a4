package sim

import (
	"fmt"

	"github.com/rustyeddy/marginsim/market"
)

// BuyAndHold values an untouched portfolio: investment converted to shares
// at the first price and marked at every sample.
func BuyAndHold(s *market.PriceSeries, investment float64) ([]ValuePoint, error) {
	if investment <= 0 {
		return nil, fmt.Errorf("buy and hold: investment %v: %w", investment, ErrConfiguration)
	}
	if s.Len() == 0 {
		return nil, nil
	}
	first := s.At(0).Price
	if first <= 0 {
		return nil, fmt.Errorf("buy and hold: first price %v: %w", first, ErrDivisionByZero)
	}
	shares := investment / first

	out := make([]ValuePoint, 0, s.Len())
	for _, p := range s.Points() {
		out = append(out, ValuePoint{Time: p.Time, Value: shares * p.Price})
	}
	return out, nil
}

// Summary holds the headline numbers of a run.
type Summary struct {
	Investment     float64
	FinalValue     float64
	ValueNetOfFees float64
	InterestCost   float64
	FeesCost       float64

	ReturnPct      float64
	MaxDrawdownPct float64

	RoundTrips int
	Wins       int
	Losses     int
}

// Summarize derives run metrics. A round trip is a buy fill followed by a
// sell fill; it wins when the value after the sell exceeds the value after
// the buy.
func Summarize(r *Result, investment float64) Summary {
	sum := Summary{
		Investment:     investment,
		FinalValue:     r.FinalValue(),
		ValueNetOfFees: r.ValueNetOfFees(),
		InterestCost:   r.Costs.Interest,
		FeesCost:       r.Costs.Fees,
		MaxDrawdownPct: MaxDrawdownPct(r.Values),
	}
	if investment > 0 {
		sum.ReturnPct = (sum.FinalValue - investment) / investment * 100
	}

	var open *Fill
	for i := range r.Fills {
		f := &r.Fills[i]
		switch f.Action {
		case market.Buy:
			open = f
		case market.Sell:
			if open == nil {
				continue
			}
			sum.RoundTrips++
			if f.Value > open.Value {
				sum.Wins++
			} else {
				sum.Losses++
			}
			open = nil
		}
	}
	return sum
}

// MaxDrawdownPct is the largest peak-to-trough fall of the series, in
// percent of the peak.
func MaxDrawdownPct(values []ValuePoint) float64 {
	var peak, worst float64
	for i, v := range values {
		if i == 0 || v.Value > peak {
			peak = v.Value
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v.Value) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}
