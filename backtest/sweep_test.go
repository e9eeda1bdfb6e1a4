package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginsim/config"
)

func TestSweepKeepsInputOrder(t *testing.T) {
	s := minuteSeries(t, 5, 3, 4, 6, 8, 7)

	var configs []*config.Config
	for _, margin := range []float64{0, 1, 2, 3, 4} {
		cfg := frictionless()
		cfg.Account.Margin = margin
		configs = append(configs, cfg)
	}
	bad := frictionless()
	bad.Signals.Generator = "nope"
	configs = append(configs, bad)

	results := Sweep(context.Background(), s, configs, 3, nil)
	require.Len(t, results, len(configs))

	for i, res := range results[:5] {
		require.NoError(t, res.Err, "config %d", i)
		assert.Same(t, configs[i], res.Config)

		margin := configs[i].Account.Margin
		want := 1000*(1+margin)/3*7 - 1000*margin
		assert.InDelta(t, want, res.Outcome.Result.FinalValue(), 1e-9, "margin %v", margin)
	}
	assert.Error(t, results[5].Err)
	assert.Nil(t, results[5].Outcome)
}

func TestSweepCancelledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	configs := []*config.Config{frictionless(), frictionless()}
	results := Sweep(ctx, minuteSeries(t, 1, 2, 3), configs, 0, nil)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestSweepEmpty(t *testing.T) {
	assert.Empty(t, Sweep(context.Background(), minuteSeries(t, 1), nil, 4, nil))
}
