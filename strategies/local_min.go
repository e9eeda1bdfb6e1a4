package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/marginsim/market"
)

// LocalMinConfig configures the local-minimum entry / trailing-stop exit
// generator.
type LocalMinConfig struct {
	// Window is the odd number of consecutive samples inspected for a
	// local minimum at its middle index.
	Window int `json:"window" yaml:"window"`

	// StopLossPct is the trailing distance below price, in percent.
	StopLossPct float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`

	// Cooldown suppresses entries this soon after a trailing-stop exit.
	// Zero disables it.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

func (c LocalMinConfig) Validate() error {
	if c.Window < 3 || c.Window%2 == 0 {
		return fmt.Errorf("locmin: window must be odd and >= 3, got %d", c.Window)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 100 {
		return fmt.Errorf("locmin: stop_loss_pct must be in (0, 100), got %v", c.StopLossPct)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("locmin: cooldown must not be negative")
	}
	return nil
}

// LocalMin buys when the middle sample of its window is strictly below every
// other sample and sells when price falls to a trailing stop that only
// ratchets upward.
//
// The buy is stamped with the middle sample's time, W/2 samples behind the
// sample that confirmed it, while the stop is seeded from the confirming
// sample's price.
type LocalMin struct {
	cfg LocalMinConfig

	window []market.PricePoint

	long     bool
	stop     float64
	lastStop *int64
}

func NewLocalMin(cfg LocalMinConfig) (*LocalMin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LocalMin{
		cfg:    cfg,
		window: make([]market.PricePoint, 0, cfg.Window),
	}, nil
}

func (s *LocalMin) Name() string { return fmt.Sprintf("locmin(%d,%.2f%%)", s.cfg.Window, s.cfg.StopLossPct) }

func (s *LocalMin) Reset() {
	s.window = s.window[:0]
	s.long = false
	s.stop = 0
	s.lastStop = nil
}

// Lookback is how many samples behind the latest one a buy can be dated.
func (s *LocalMin) Lookback() int { return s.cfg.Window / 2 }

// Stop returns the current trailing stop while long.
func (s *LocalMin) Stop() (float64, bool) {
	return s.stop, s.long
}

func (s *LocalMin) OnPrice(p market.PricePoint) (market.TradeEvent, bool) {
	if len(s.window) == s.cfg.Window {
		copy(s.window, s.window[1:])
		s.window = s.window[:len(s.window)-1]
	}
	s.window = append(s.window, p)

	if !s.long {
		if len(s.window) < s.cfg.Window {
			return market.TradeEvent{}, false
		}
		mid, ok := s.localMin()
		if !ok || !s.canEnter(mid.Time) {
			return market.TradeEvent{}, false
		}
		s.long = true
		s.stop = s.stopFor(p.Price)
		// the confirming tick never checks the stop
		return market.TradeEvent{Time: mid.Time, Action: market.Buy, Reason: market.ReasonLocalMin}, true
	}

	if next := s.stopFor(p.Price); next > s.stop {
		s.stop = next
	}
	if p.Price <= s.stop {
		s.long = false
		s.stop = 0
		t := p.Time
		s.lastStop = &t
		return market.TradeEvent{Time: p.Time, Action: market.Sell, Reason: market.ReasonTrailStop}, true
	}
	return market.TradeEvent{}, false
}

func (s *LocalMin) stopFor(price float64) float64 {
	return price * (1 - s.cfg.StopLossPct/100)
}

func (s *LocalMin) localMin() (market.PricePoint, bool) {
	m := len(s.window) / 2
	mid := s.window[m]
	for i, p := range s.window {
		if i != m && p.Price <= mid.Price {
			return market.PricePoint{}, false
		}
	}
	return mid, true
}

func (s *LocalMin) canEnter(t int64) bool {
	if s.lastStop == nil {
		return true
	}
	// the window can straddle the last exit; never emit a buy behind it
	if t < *s.lastStop {
		return false
	}
	return s.cfg.Cooldown <= 0 || t-*s.lastStop >= seconds(s.cfg.Cooldown)
}
