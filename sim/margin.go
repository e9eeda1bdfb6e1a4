package sim

import (
	"fmt"

	"github.com/rustyeddy/marginsim/market"
)

// DefaultMaintenanceRate is the exchange maintenance margin as a fraction
// of the leveraged position.
const DefaultMaintenanceRate = 0.2

// MarginRequirement returns the maintenance margin after each trade: on a
// buy the leveraged position investment*(1+margin) times maintenance, on a
// sell zero. Trades with no price at or before their timestamp are skipped.
func MarginRequirement(s *market.PriceSeries, trades []market.TradeEvent, investment, margin, maintenance float64) ([]ValuePoint, error) {
	if investment <= 0 || margin < 0 || maintenance < 0 {
		return nil, fmt.Errorf("margin requirement: investment=%v margin=%v maintenance=%v: %w",
			investment, margin, maintenance, ErrConfiguration)
	}
	position := investment * (1 + margin)

	out := make([]ValuePoint, 0, len(trades))
	for _, tr := range trades {
		if _, ok := s.PriceAtOrBefore(tr.Time); !ok {
			continue
		}
		req := 0.0
		if tr.Action == market.Buy {
			req = position * maintenance
		}
		out = append(out, ValuePoint{Time: tr.Time, Value: req})
	}
	return out, nil
}
