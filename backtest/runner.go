package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/indicators"
	"github.com/rustyeddy/marginsim/journal"
	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/pkg/id"
	"github.com/rustyeddy/marginsim/sim"
	"github.com/rustyeddy/marginsim/strategies"
)

// Outcome is everything produced by one run.
type Outcome struct {
	Run       journal.Run
	Trades    []market.TradeEvent
	Result    *sim.Result
	Summary   sim.Summary
	Untouched []sim.ValuePoint
	Margin    []sim.ValuePoint
}

// Runner drives one configuration over a price series:
//  1. generate trades (or take them as given)
//  2. apply the hysteresis filter when enabled
//  3. check every trade has a price, merge, simulate
//  4. summarize and record to the journal when one is set
type Runner struct {
	Config  *config.Config
	Logger  *slog.Logger
	Journal journal.Journal

	// Dataset labels the run in the journal, usually the price file.
	Dataset string

	// Now stamps run IDs; time.Now when nil.
	Now func() time.Time
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run generates trades from series and simulates them.
func (r *Runner) Run(ctx context.Context, s *market.PriceSeries) (*Outcome, error) {
	trades, err := r.Signals(s)
	if err != nil {
		return nil, err
	}
	return r.Simulate(ctx, s, trades)
}

// Signals runs the configured generator over s and applies the hysteresis
// filter when enabled.
func (r *Runner) Signals(s *market.PriceSeries) ([]market.TradeEvent, error) {
	if r.Config == nil {
		return nil, fmt.Errorf("backtest: Config is required")
	}
	cfg := r.Config
	log := r.logger()

	g, err := strategies.ByName(cfg.Signals.Generator, s, cfg.StrategyParams())
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	trades := strategies.Run(g, s)
	log.Debug("signals generated", "generator", g.Name(), "samples", s.Len(), "trades", len(trades))

	if cfg.Hysteresis.Enabled {
		c, err := strategies.NewDirectionClassifier(cfg.HysteresisParams())
		if err != nil {
			return nil, fmt.Errorf("backtest: %w", err)
		}
		dirs := c.Classify(s, indicators.EMASlopes(s, cfg.Signals.EMASpan))
		filtered := strategies.FilterByDirection(trades, dirs)
		flipped := 0
		for i := range trades {
			if trades[i] != filtered[i] {
				flipped++
			}
		}
		log.Debug("hysteresis applied", "flipped", flipped)
		trades = filtered
	}
	return trades, nil
}

// Simulate replays trades against s with the configured account.
func (r *Runner) Simulate(ctx context.Context, s *market.PriceSeries, trades []market.TradeEvent) (*Outcome, error) {
	if r.Config == nil {
		return nil, fmt.Errorf("backtest: Config is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := r.Config

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	if err := CheckTradePrices(s, trades); err != nil {
		return nil, err
	}

	engine, err := sim.NewSimulator(simCfg, cfg.SimOptions())
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(market.Merge(s, trades), s)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	untouched, err := sim.BuyAndHold(s, simCfg.Investment)
	if err != nil {
		return nil, err
	}
	margin, err := sim.MarginRequirement(s, trades, simCfg.Investment, simCfg.Margin, sim.DefaultMaintenanceRate)
	if err != nil {
		return nil, err
	}

	sum := sim.Summarize(res, simCfg.Investment)
	var start, end time.Time
	if a, b, ok := s.Span(); ok {
		start, end = time.Unix(a, 0).UTC(), time.Unix(b, 0).UTC()
	}
	out := &Outcome{
		Run:       r.journalRun(start, end, sum),
		Trades:    trades,
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

// record logs the outcome and writes it to the journal when one is set.
func (r *Runner) record(ctx context.Context, out *Outcome) error {
	r.logger().Info("run complete",
		"run_id", out.Run.RunID,
		"strategy", out.Run.Strategy,
		"trades", len(out.Trades),
		"final_value", out.Summary.FinalValue,
		"return_pct", out.Summary.ReturnPct,
		"interest", out.Summary.InterestCost,
		"fees", out.Summary.FeesCost,
	)
	if r.Journal == nil {
		return nil
	}
	if err := r.Journal.RecordRun(ctx, out.Run, out.Result.Fills, out.Result.Values); err != nil {
		return fmt.Errorf("journal run %s: %w", out.Run.RunID, err)
	}
	return nil
}

func (r *Runner) journalRun(start, end time.Time, sum sim.Summary) journal.Run {
	cfg := r.Config
	created := r.now()

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		r.logger().Warn("config not recorded", "err", err)
	}

	run := journal.Run{
		RunID:        id.NewAt(created),
		Created:      created.UTC(),
		Pair:         cfg.Pair,
		Dataset:      r.Dataset,
		Strategy:     strategies.Canonical(cfg.Signals.Generator),
		Config:       raw,
		Start:        start,
		End:          end,
		Investment:   sum.Investment,
		FinalValue:   sum.FinalValue,
		InterestCost: sum.InterestCost,
		FeesCost:     sum.FeesCost,
		ReturnPct:    sum.ReturnPct,
		MaxDDPct:     sum.MaxDrawdownPct,
		RoundTrips:   sum.RoundTrips,
		Wins:         sum.Wins,
		Losses:       sum.Losses,
	}
	if cfg.Hysteresis.Enabled {
		run.Notes = append(run.Notes, fmt.Sprintf("hysteresis filter first_confirm=%d confirm=%d",
			cfg.Hysteresis.FirstConfirm, cfg.Hysteresis.Confirm))
	}
	if ff := cfg.SimOptions().FeeFunding; ff == sim.External {
		run.Notes = append(run.Notes, "fees funded externally")
	}
	return run
}

// CheckTradePrices fails with sim.ErrMissingPrice listing the first trade
// whose timestamp has no exact price in s.
func CheckTradePrices(s *market.PriceSeries, trades []market.TradeEvent) error {
	var missing []int64
	for _, tr := range trades {
		if _, err := s.PriceAt(tr.Time); err != nil {
			missing = append(missing, tr.Time)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%d trade(s) without price, first at t=%d: %w: %w",
		len(missing), missing[0], sim.ErrMissingPrice, market.ErrPriceNotFound)
}
