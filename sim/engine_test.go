package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/rustyeddy/marginsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeries(t *testing.T, pts ...market.PricePoint) *market.PriceSeries {
	t.Helper()
	s, err := market.NewPriceSeries(pts)
	require.NoError(t, err)
	return s
}

func buy(ts int64) market.TradeEvent {
	return market.TradeEvent{Time: ts, Action: market.Buy, Reason: "test"}
}

func sell(ts int64) market.TradeEvent {
	return market.TradeEvent{Time: ts, Action: market.Sell, Reason: "test"}
}

func newSim(t *testing.T, cfg Config, opts Options) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, opts)
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Investment: 1000, Margin: 4, AnnualInterestRate: 0.05, FeePct: 0.001}, false},
		{"zero investment", Config{}, true},
		{"negative margin", Config{Investment: 1, Margin: -1}, true},
		{"negative interest", Config{Investment: 1, AnnualInterestRate: -0.1}, true},
		{"negative fee", Config{Investment: 1, FeePct: -0.1}, true},
		{"full slippage", Config{Investment: 1, SlippagePct: 1}, true},
		{"full fee", Config{Investment: 1, FeePct: 1}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSimulator(tt.cfg, AllCosts())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseFeeFunding(t *testing.T) {
	f, err := ParseFeeFunding("")
	require.NoError(t, err)
	assert.Equal(t, FromPortfolio, f)

	f, err = ParseFeeFunding("BNB")
	require.NoError(t, err)
	assert.Equal(t, External, f)
	assert.Equal(t, "external", f.String())

	_, err = ParseFeeFunding("card")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestBuyThenSellNoCosts(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 10, Price: 10},
		market.PricePoint{Time: 20, Price: 20},
	)
	s := newSim(t, Config{Investment: 1000}, Options{})

	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(10), sell(20)}), series)
	require.NoError(t, err)

	assert.Equal(t, []ValuePoint{
		{0, 1000}, {10, 1000}, {10, 1000}, {20, 2000}, {20, 2000},
	}, res.Values)

	require.Len(t, res.Fills, 2)
	assert.InDelta(t, 100, res.Fills[0].Shares, 1e-9)
	assert.Zero(t, res.Fills[0].Cash)
	assert.InDelta(t, 2000, res.Account.Cash, 1e-9)
	assert.Zero(t, res.Account.Debt)
	assert.Zero(t, res.Account.Shares)
	assert.Equal(t, Costs{}, res.Costs)
	assert.Equal(t, 2000.0, res.FinalValue())
}

func TestLeverageWithFee(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 0, Price: 10})
	s := newSim(t, Config{Investment: 1000, Margin: 4, FeePct: 0.001}, AllCosts())

	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(0)}), series)
	require.NoError(t, err)

	acct := res.Account
	assert.InDelta(t, 499.5, acct.Shares, 1e-9)
	assert.InDelta(t, 4000, acct.Debt, 1e-9)
	assert.Zero(t, acct.Cash)
	assert.InDelta(t, 5, res.Costs.Fees, 1e-9)

	require.Len(t, res.Fills, 1)
	assert.InDelta(t, 4000, res.Fills[0].Borrowed, 1e-9)
	assert.InDelta(t, 5, res.Fills[0].Fee, 1e-9)
	// marked at the execution price: 499.5*10 - 4000
	assert.InDelta(t, 995, res.FinalValue(), 1e-9)
}

func TestExternalFeeFunding(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 1, Price: 20},
	)
	opts := Options{Fees: true, FeeFunding: External}
	s := newSim(t, Config{Investment: 1000, Margin: 4, FeePct: 0.001}, opts)

	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(0), sell(1)}), series)
	require.NoError(t, err)

	require.Len(t, res.Fills, 2)
	assert.InDelta(t, 500, res.Fills[0].Shares, 1e-9)
	assert.InDelta(t, 4000, res.Fills[0].Debt, 1e-9)

	// 500*20 = 10000 proceeds, 4000 repaid, fees never leave the account
	assert.InDelta(t, 6000, res.Account.Cash, 1e-9)
	assert.InDelta(t, 15, res.Costs.Fees, 1e-9)
	assert.InDelta(t, 6000, res.FinalValue(), 1e-9)
	assert.InDelta(t, 5985, res.ValueNetOfFees(), 1e-9)
}

func TestSlippage(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 1, Price: 10},
	)
	s := newSim(t, Config{Investment: 1000, SlippagePct: 0.01}, Options{Slippage: true})

	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(0), sell(1)}), series)
	require.NoError(t, err)

	require.Len(t, res.Fills, 2)
	assert.InDelta(t, 10.1, res.Fills[0].EffectivePrice, 1e-9)
	assert.InDelta(t, 1000/10.1, res.Fills[0].Shares, 1e-9)
	assert.InDelta(t, 1000/10.1*10, res.Fills[0].Value, 1e-9)
	assert.InDelta(t, 9.9, res.Fills[1].EffectivePrice, 1e-9)
	assert.InDelta(t, 1000/10.1*9.9, res.Account.Cash, 1e-9)
}

func TestInterestOverOneYear(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 0, Price: 10})
	s := newSim(t, Config{Investment: 1000, Margin: 1, AnnualInterestRate: 0.05}, Options{Interest: true})

	events := market.Merge(series, []market.TradeEvent{buy(0)})
	events = append(events, market.Event{Kind: market.KindOther, Time: SecondsPerYear})

	res, err := s.Run(events, series)
	require.NoError(t, err)

	assert.InDelta(t, 50, res.Costs.Interest, 1e-6)
	// no cash left, so the whole accrual rolls into debt
	assert.InDelta(t, 1050, res.Account.Debt, 1e-6)

	// the other event holds the last value
	last := res.Values[len(res.Values)-1]
	assert.Equal(t, int64(SecondsPerYear), last.Time)
	assert.Equal(t, res.Values[len(res.Values)-2].Value, last.Value)
}

func TestInterestIsZeroWithoutDebt(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 86400, Price: 12},
		market.PricePoint{Time: 2 * 86400, Price: 11},
	)
	s := newSim(t, Config{Investment: 1000, AnnualInterestRate: 0.5}, AllCosts())
	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(0), sell(2 * 86400)}), series)
	require.NoError(t, err)
	assert.Zero(t, res.Costs.Interest)
}

func TestInterestMonotonicAndPriceEventsDoNotMutate(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 3600, Price: 11},
		market.PricePoint{Time: 7200, Price: 9},
		market.PricePoint{Time: 10800, Price: 10},
	)
	s := newSim(t, Config{Investment: 1000, Margin: 2, AnnualInterestRate: 0.2}, Options{Interest: true})
	require.NoError(t, s.Step(market.Event{Kind: market.KindTrade, Time: 0, Trade: buy(0)}, series))

	prev := s.Costs().Interest
	for _, p := range series.Points()[1:] {
		before := s.Account()
		require.NoError(t, s.Step(market.Event{Kind: market.KindPrice, Time: p.Time, Price: p.Price}, series))
		after := s.Account()

		assert.Equal(t, before.Shares, after.Shares)
		assert.GreaterOrEqual(t, after.Debt, before.Debt)
		assert.Greater(t, s.Costs().Interest, prev)
		prev = s.Costs().Interest

		last := s.Values()[len(s.Values())-1]
		assert.Equal(t, after.NetValue(p.Price), last.Value)
	}
}

func TestSameTimestampSkipsAccrual(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 0, Price: 10})
	s := newSim(t, Config{Investment: 1000, Margin: 1, AnnualInterestRate: 0.05}, Options{Interest: true})
	res, err := s.Run(append(market.Merge(series, []market.TradeEvent{buy(0)}),
		market.Event{Kind: market.KindOther, Time: 0}), series)
	require.NoError(t, err)
	assert.Zero(t, res.Costs.Interest)
}

func TestPayFromCash(t *testing.T) {
	a := Account{Cash: 10, Debt: 100}
	a.payFromCash(4)
	assert.Equal(t, Account{Cash: 6, Debt: 100}, a)

	a.payFromCash(10)
	assert.Equal(t, Account{Cash: 0, Debt: 104}, a)
}

func TestMissingPriceAbortsRun(t *testing.T) {
	series := newSeries(t,
		market.PricePoint{Time: 0, Price: 10},
		market.PricePoint{Time: 10, Price: 11},
	)
	s := newSim(t, Config{Investment: 1000}, AllCosts())

	res, err := s.Run(market.Merge(series, []market.TradeEvent{buy(5)}), series)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrMissingPrice)
	assert.ErrorIs(t, err, market.ErrPriceNotFound)
}

func TestTimeRegression(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 10, Price: 10})
	s := newSim(t, Config{Investment: 1000}, AllCosts())

	events := []market.Event{
		{Kind: market.KindPrice, Time: 10, Price: 10},
		{Kind: market.KindPrice, Time: 5, Price: 10},
	}
	_, err := s.Run(events, series)
	assert.True(t, errors.Is(err, ErrInvalidTimeOrder))
}

func TestZeroExecutionPrice(t *testing.T) {
	s := newSim(t, Config{Investment: 1000}, AllCosts())
	err := s.Step(market.Event{Kind: market.KindTrade, Time: 0, Trade: buy(0)}, market.PriceIndex{0: 0})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestSellAtZeroPriceKeepsPosition(t *testing.T) {
	s := newSim(t, Config{Investment: 1000}, AllCosts())
	prices := market.PriceIndex{0: 10, 1: 0}

	require.NoError(t, s.Step(market.Event{Kind: market.KindTrade, Time: 0, Trade: buy(0)}, prices))
	before := s.Account()

	err := s.Step(market.Event{Kind: market.KindTrade, Time: 1, Trade: sell(1)}, prices)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, before.Shares, s.Account().Shares)
	assert.Equal(t, 100.0, s.Account().Shares)
	assert.Len(t, s.Values(), 1)
}

func TestFeeLargerThanCashIsBorrowed(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 0, Price: 10})
	s := newSim(t, Config{Investment: 1000, Margin: 4, FeePct: 0.25}, AllCosts())

	res, err := s.Run([]market.Event{{Kind: market.KindTrade, Time: 0, Trade: buy(0)}}, series)
	require.NoError(t, err)

	acct := s.Account()
	assert.InDelta(t, 4000, acct.Debt, 1e-9)
	assert.InDelta(t, 375, acct.Shares, 1e-9)
	assert.Zero(t, acct.Cash)
	assert.InDelta(t, 1250, res.Costs.Fees, 1e-9)
	require.Len(t, res.Fills, 1)
	assert.InDelta(t, 3750, res.Fills[0].Borrowed, 1e-9)
	assert.InDelta(t, -250, res.Values[len(res.Values)-1].Value, 1e-9)
}

func TestSellWhileFlat(t *testing.T) {
	series := newSeries(t, market.PricePoint{Time: 0, Price: 10})
	s := newSim(t, Config{Investment: 1000, FeePct: 0.001}, AllCosts())

	res, err := s.Run(market.Merge(series, []market.TradeEvent{sell(0)}), series)
	require.NoError(t, err)
	require.Len(t, res.Fills, 1)
	assert.Zero(t, res.Fills[0].Shares)
	assert.Zero(t, res.Costs.Fees)
	assert.Equal(t, 1000.0, res.FinalValue())
}

func TestRunIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]market.PricePoint, 2000)
	price := 1.0
	for i := range pts {
		price *= 1 + (rng.Float64()-0.5)*0.01
		pts[i] = market.PricePoint{Time: int64(i * 60), Price: price}
	}
	series := newSeries(t, pts...)

	var trades []market.TradeEvent
	for i := 10; i+50 < len(pts); i += 100 {
		trades = append(trades, buy(pts[i].Time), sell(pts[i+50].Time))
	}
	events := market.Merge(series, trades)
	cfg := Config{Investment: 1000, Margin: 4, AnnualInterestRate: 0.08, FeePct: 0.001, SlippagePct: 0.0005}

	s := newSim(t, cfg, AllCosts())
	first, err := s.Run(events, series)
	require.NoError(t, err)
	second, err := s.Run(events, series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Values, len(events))
	assert.Greater(t, first.Costs.Interest, 0.0)
}
