package sim

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/marginsim/market"
)

// FeeFunding selects who pays trading fees.
type FeeFunding int8

const (
	// FromPortfolio deducts fees from cash on buys and from proceeds on sells.
	FromPortfolio FeeFunding = iota
	// External only accounts for fees, as when they are paid in a separate
	// token balance. Portfolio values do not include them.
	External
)

func (f FeeFunding) String() string {
	if f == External {
		return "external"
	}
	return "portfolio"
}

func ParseFeeFunding(s string) (FeeFunding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portfolio":
		return FromPortfolio, nil
	case "external", "bnb":
		return External, nil
	default:
		return 0, fmt.Errorf("unknown fee funding %q: %w", s, ErrConfiguration)
	}
}

// Config holds account parameters. Rates are fractions: 0.05 is 5%.
type Config struct {
	Investment float64
	// Margin is the leverage ratio: 4 borrows 4x cash to deploy 5x.
	Margin             float64
	AnnualInterestRate float64
	FeePct             float64
	SlippagePct        float64
}

func (c Config) Validate() error {
	if c.Investment <= 0 {
		return fmt.Errorf("investment must be > 0, got %v: %w", c.Investment, ErrConfiguration)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"margin", c.Margin},
		{"annual interest rate", c.AnnualInterestRate},
		{"fee", c.FeePct},
		{"slippage", c.SlippagePct},
	} {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative, got %v: %w", f.name, f.v, ErrConfiguration)
		}
	}
	if c.SlippagePct >= 1 || c.FeePct >= 1 {
		return fmt.Errorf("fee (%v) and slippage (%v) must be below 100%%: %w", c.FeePct, c.SlippagePct, ErrConfiguration)
	}
	return nil
}

// Options switch the optional costs. A disabled cost behaves as a zero rate.
type Options struct {
	Fees       bool
	Slippage   bool
	Interest   bool
	FeeFunding FeeFunding
}

// AllCosts enables every cost, paid from the portfolio.
func AllCosts() Options {
	return Options{Fees: true, Slippage: true, Interest: true}
}

// PriceLookup resolves the execution price of a trade timestamp.
type PriceLookup interface {
	PriceAt(t int64) (float64, error)
}

// Result is the output of a completed run.
type Result struct {
	Values  []ValuePoint
	Costs   Costs
	Fills   []Fill
	Account Account
}

// FinalValue is the last portfolio value, or 0 when nothing was recorded.
func (r *Result) FinalValue() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[len(r.Values)-1].Value
}

// ValueNetOfFees is FinalValue minus all fees. It matters when fees are
// funded externally.
func (r *Result) ValueNetOfFees() float64 {
	return r.FinalValue() - r.Costs.Fees
}

// Simulator replays a merged event stream against a margin account.
// It is not safe for concurrent use; run one per goroutine.
type Simulator struct {
	cfg  Config
	opts Options

	perSecond float64

	acct      Account
	costs     Costs
	values    []ValuePoint
	fills     []Fill
	lastValue float64
}

func NewSimulator(cfg Config, opts Options) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{cfg: cfg, opts: opts}
	if opts.Interest {
		s.perSecond = PerSecondRate(cfg.AnnualInterestRate)
	}
	s.Reset()
	return s, nil
}

// Reset returns the account to all cash.
func (s *Simulator) Reset() {
	s.acct = Account{Cash: s.cfg.Investment}
	s.costs = Costs{}
	s.values = nil
	s.fills = nil
	s.lastValue = s.cfg.Investment
}

func (s *Simulator) Account() Account { return s.acct }
func (s *Simulator) Costs() Costs     { return s.costs }

// Values returns the value series recorded so far. Callers must not modify it.
func (s *Simulator) Values() []ValuePoint { return s.values }

// Run resets the simulator and processes events in order. Any error aborts
// the run and no partial result is returned.
func (s *Simulator) Run(events []market.Event, prices PriceLookup) (*Result, error) {
	s.Reset()
	for i, ev := range events {
		if err := s.Step(ev, prices); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return s.Result(), nil
}

// Result snapshots the state reached so far.
func (s *Simulator) Result() *Result {
	return &Result{
		Values:  append([]ValuePoint(nil), s.values...),
		Costs:   s.costs,
		Fills:   append([]Fill(nil), s.fills...),
		Account: s.acct,
	}
}

// Step processes a single event: interest accrues first, then the event
// is applied and one value point is appended.
func (s *Simulator) Step(ev market.Event, prices PriceLookup) error {
	if last := s.acct.LastTime; last != nil && ev.Time < *last {
		return fmt.Errorf("t=%d after t=%d: %w", ev.Time, *last, ErrInvalidTimeOrder)
	}
	s.accrue(ev.Time)

	switch ev.Kind {
	case market.KindPrice:
		s.record(ev.Time, s.acct.NetValue(ev.Price))

	case market.KindTrade:
		price, err := prices.PriceAt(ev.Time)
		if err != nil {
			return fmt.Errorf("%v at t=%d: %w: %w", ev.Trade.Action, ev.Time, ErrMissingPrice, err)
		}
		switch ev.Trade.Action {
		case market.Buy:
			err = s.buy(ev.Trade, price)
		case market.Sell:
			err = s.sell(ev.Trade, price)
		default:
			err = fmt.Errorf("t=%d: unknown action %v", ev.Time, ev.Trade.Action)
		}
		if err != nil {
			return err
		}

	default:
		s.record(ev.Time, s.lastValue)
	}

	t := ev.Time
	s.acct.LastTime = &t
	return nil
}

func (s *Simulator) accrue(t int64) {
	if s.acct.LastTime == nil || s.acct.Debt <= 0 {
		return
	}
	interest := Interest(s.acct.Debt, s.perSecond, t-*s.acct.LastTime)
	if interest == 0 {
		return
	}
	s.costs.Interest += interest
	s.acct.payFromCash(interest)
}

func (s *Simulator) fee(amount float64) float64 {
	if !s.opts.Fees {
		return 0
	}
	return amount * s.cfg.FeePct
}

func (s *Simulator) slippage() float64 {
	if !s.opts.Slippage {
		return 0
	}
	return s.cfg.SlippagePct
}

func (s *Simulator) buy(tr market.TradeEvent, execution float64) error {
	buyPrice := execution * (1 + s.slippage())
	if buyPrice <= 0 {
		return fmt.Errorf("buy at t=%d with price %v: %w", tr.Time, buyPrice, ErrDivisionByZero)
	}

	total := s.acct.Cash * (1 + s.cfg.Margin)
	fee := s.fee(total)
	s.costs.Fees += fee

	funds := total
	if s.opts.FeeFunding == FromPortfolio {
		s.acct.payFromCash(fee)
		funds -= fee
	}

	// whatever cash is left after the fee is spent first
	borrowed := funds - s.acct.Cash
	if borrowed < 0 {
		borrowed = 0
	}
	s.acct.Debt += borrowed

	shares := funds / buyPrice
	s.acct.Shares += shares
	s.acct.Cash = 0

	value := s.acct.NetValue(execution)
	s.record(tr.Time, value)
	s.fills = append(s.fills, Fill{
		Time:           tr.Time,
		Action:         market.Buy,
		Reason:         tr.Reason,
		ExecutionPrice: execution,
		EffectivePrice: buyPrice,
		Shares:         shares,
		Fee:            fee,
		Borrowed:       borrowed,
		Debt:           s.acct.Debt,
		Cash:           s.acct.Cash,
		Value:          value,
	})
	return nil
}

// sell liquidates every share. Selling while flat has zero proceeds.
func (s *Simulator) sell(tr market.TradeEvent, execution float64) error {
	if execution <= 0 {
		return fmt.Errorf("sell at t=%d with price %v: %w", tr.Time, execution, ErrDivisionByZero)
	}
	sellPrice := execution * (1 - s.slippage())
	shares := s.acct.Shares
	proceeds := shares * sellPrice
	fee := s.fee(proceeds)
	s.costs.Fees += fee

	net := proceeds
	if s.opts.FeeFunding == FromPortfolio {
		net -= fee
		if net < 0 {
			s.acct.Debt += -net
			net = 0
		}
	}

	if net >= s.acct.Debt {
		s.acct.Cash += net - s.acct.Debt
		s.acct.Debt = 0
	} else {
		s.acct.Debt -= net
	}
	s.acct.Shares = 0

	value := s.acct.NetValue(execution)
	s.record(tr.Time, value)
	s.fills = append(s.fills, Fill{
		Time:           tr.Time,
		Action:         market.Sell,
		Reason:         tr.Reason,
		ExecutionPrice: execution,
		EffectivePrice: sellPrice,
		Shares:         shares,
		Fee:            fee,
		Debt:           s.acct.Debt,
		Cash:           s.acct.Cash,
		Value:          value,
	})
	return nil
}

func (s *Simulator) record(t int64, v float64) {
	s.values = append(s.values, ValuePoint{Time: t, Value: v})
	s.lastValue = v
}
