package sim

import (
	"testing"

	"github.com/rustyeddy/marginsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarginRequirement(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 10, Price: 1},
		market.PricePoint{Time: 20, Price: 2},
	)
	trades := []market.TradeEvent{buy(5), buy(12), sell(25)}

	got, err := MarginRequirement(series, trades, 1000, 4, DefaultMaintenanceRate)
	require.NoError(t, err)

	// t=5 has no earlier price and is skipped
	assert.Equal(t, []ValuePoint{{12, 1000}, {25, 0}}, got)

	_, err = MarginRequirement(series, trades, 0, 4, DefaultMaintenanceRate)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPerSecondRateCompoundsToAnnual(t *testing.T) {
	for _, r := range []float64{0, 0.01, 0.05, 0.35} {
		p := PerSecondRate(r)
		assert.InDelta(t, 1000*r, Interest(1000, p, SecondsPerYear), 1e-6, "rate %v", r)
	}
	assert.Zero(t, Interest(0, PerSecondRate(0.05), 100))
	assert.Zero(t, Interest(1000, PerSecondRate(0.05), 0))
}
