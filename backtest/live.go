package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/indicators"
	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/sim"
	"github.com/rustyeddy/marginsim/strategies"
)

type lookback interface {
	Lookback() int
}

// Live runs the configured generator and simulator over points that arrive
// one at a time. Generators that date a trade behind the latest sample
// (the local minimum) hold that many samples back from the simulator so
// events still reach it in time order.
type Live struct {
	log *slog.Logger

	gen    strategies.Generator
	slope  *strategies.SlopeTrend
	coarse *indicators.EMASlope
	micro  *indicators.EMASlope

	classifier *strategies.DirectionClassifier
	dirs       map[int64]strategies.Direction

	lag     int
	engine  *sim.Simulator
	prices  market.PriceIndex
	points  []market.PricePoint
	pending []market.PricePoint
	queued  []market.TradeEvent
	trades  []market.TradeEvent
}

// NewLive builds a Live from a validated configuration.
func NewLive(cfg *config.Config, logger *slog.Logger) (*Live, error) {
	if logger == nil {
		logger = slog.Default()
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	engine, err := sim.NewSimulator(simCfg, cfg.SimOptions())
	if err != nil {
		return nil, err
	}
	l := &Live{log: logger, engine: engine, prices: market.PriceIndex{}}

	if strategies.Canonical(cfg.Signals.Generator) == "slope" {
		if cfg.Signals.EMASpan <= 0 || cfg.Signals.MicroEMASpan <= 0 {
			return nil, fmt.Errorf("slope needs positive ema spans: %w", sim.ErrConfiguration)
		}
		st, err := strategies.NewSlopeTrend(cfg.Signals.Slope, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("live: %w", err)
		}
		l.slope = st
		l.coarse = indicators.NewEMASlope(cfg.Signals.EMASpan)
		l.micro = indicators.NewEMASlope(cfg.Signals.MicroEMASpan)
	} else {
		g, err := strategies.ByName(cfg.Signals.Generator, nil, cfg.StrategyParams())
		if err != nil {
			return nil, fmt.Errorf("live: %w", err)
		}
		l.gen = g
		if lb, ok := g.(lookback); ok {
			l.lag = lb.Lookback()
		}
	}

	if cfg.Hysteresis.Enabled {
		c, err := strategies.NewDirectionClassifier(cfg.HysteresisParams())
		if err != nil {
			return nil, fmt.Errorf("live: %w", err)
		}
		if cfg.Signals.EMASpan <= 0 {
			return nil, fmt.Errorf("hysteresis needs signals.ema_span: %w", sim.ErrConfiguration)
		}
		l.classifier = c
		l.dirs = make(map[int64]strategies.Direction)
		if l.coarse == nil {
			l.coarse = indicators.NewEMASlope(cfg.Signals.EMASpan)
		}
	}
	return l, nil
}

// OnPrice consumes the next point. Timestamps must strictly increase.
func (l *Live) OnPrice(p market.PricePoint) error {
	if n := len(l.points); n > 0 && p.Time <= l.points[n-1].Time {
		return fmt.Errorf("live point t=%d after t=%d: %w", p.Time, l.points[n-1].Time, sim.ErrInvalidTimeOrder)
	}
	if p.Price <= 0 {
		return fmt.Errorf("live point t=%d has non-positive price %v", p.Time, p.Price)
	}
	l.points = append(l.points, p)
	l.prices[p.Time] = p.Price
	l.pending = append(l.pending, p)

	var slope float64
	haveSlope := false
	if l.coarse != nil {
		l.coarse.Update(p.Price)
		slope, haveSlope = l.coarse.Value(), l.coarse.Ready()
	}
	if l.classifier != nil && haveSlope {
		l.dirs[p.Time] = l.classifier.Update(slope)
	}

	if tr, ok := l.signal(p, slope, haveSlope); ok {
		if l.classifier != nil {
			tr = strategies.FilterByDirection([]market.TradeEvent{tr}, l.dirs)[0]
		}
		l.log.Info("signal", "t", tr.Time, "action", tr.Action, "reason", tr.Reason, "price", l.prices[tr.Time])
		l.queued = append(l.queued, tr)
		l.trades = append(l.trades, tr)
	}
	return l.flush(l.lag)
}

func (l *Live) signal(p market.PricePoint, slope float64, haveSlope bool) (market.TradeEvent, bool) {
	if l.slope == nil {
		return l.gen.OnPrice(p)
	}
	l.micro.Update(p.Price)
	if !haveSlope || !l.micro.Ready() {
		return market.TradeEvent{}, false
	}
	return l.slope.OnSlope(p.Time, slope, l.micro.Value())
}

// flush hands all but the last keep points, and the trades dated at or
// before them, to the simulator.
func (l *Live) flush(keep int) error {
	for len(l.pending) > keep {
		p := l.pending[0]
		l.pending = l.pending[1:]
		if err := l.engine.Step(market.Event{Kind: market.KindPrice, Time: p.Time, Price: p.Price}, l.prices); err != nil {
			return err
		}
		for len(l.queued) > 0 && l.queued[0].Time <= p.Time {
			tr := l.queued[0]
			l.queued = l.queued[1:]
			if err := l.engine.Step(market.Event{Kind: market.KindTrade, Time: tr.Time, Trade: tr}, l.prices); err != nil {
				return err
			}
		}
		delete(l.dirs, p.Time)
	}
	return nil
}

// Flush drains the points held back for a late-dated trade.
func (l *Live) Flush() error { return l.flush(0) }

// Account is the simulated account after the points flushed so far.
func (l *Live) Account() sim.Account { return l.engine.Account() }

// Trades returns the trades emitted so far.
func (l *Live) Trades() []market.TradeEvent {
	return append([]market.TradeEvent(nil), l.trades...)
}

// Finish flushes l and turns it into an Outcome the same way a batch run
// is summarized and journaled.
func (r *Runner) Finish(ctx context.Context, l *Live) (*Outcome, error) {
	if r.Config == nil {
		return nil, fmt.Errorf("backtest: Config is required")
	}
	if err := l.Flush(); err != nil {
		return nil, err
	}
	simCfg, err := r.Config.SimConfig()
	if err != nil {
		return nil, err
	}
	s, err := market.NewPriceSeries(l.points)
	if err != nil {
		return nil, err
	}

	res := l.engine.Result()
	untouched, err := sim.BuyAndHold(s, simCfg.Investment)
	if err != nil {
		return nil, err
	}
	margin, err := sim.MarginRequirement(s, l.trades, simCfg.Investment, simCfg.Margin, sim.DefaultMaintenanceRate)
	if err != nil {
		return nil, err
	}

	sum := sim.Summarize(res, simCfg.Investment)
	var start, end time.Time
	if a, b, ok := s.Span(); ok {
		start, end = time.Unix(a, 0).UTC(), time.Unix(b, 0).UTC()
	}
	run := r.journalRun(start, end, sum)
	run.Notes = append(run.Notes, "live stream")

	out := &Outcome{
		Run:       run,
		Trades:    l.Trades(),
		Result:    res,
		Summary:   sum,
		Untouched: untouched,
		Margin:    margin,
	}
	if err := r.record(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}
