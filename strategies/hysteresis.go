package strategies

import (
	"fmt"

	"github.com/rustyeddy/marginsim/indicators"
	"github.com/rustyeddy/marginsim/market"
)

// Direction is the debounced trend state of a slope series.
type Direction int8

const (
	Unknown Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// HysteresisConfig sets how many consecutive opposite-sign samples confirm a
// direction change. The first change needs FirstConfirm, later ones Confirm.
type HysteresisConfig struct {
	FirstConfirm int `json:"first_confirm" yaml:"first_confirm"`
	Confirm      int `json:"confirm" yaml:"confirm"`
}

func (c HysteresisConfig) Validate() error {
	if c.Confirm < 1 {
		return fmt.Errorf("hysteresis: confirm must be >= 1, got %d", c.Confirm)
	}
	if c.FirstConfirm < c.Confirm {
		return fmt.Errorf("hysteresis: first_confirm (%d) must be >= confirm (%d)", c.FirstConfirm, c.Confirm)
	}
	return nil
}

// DirectionClassifier buckets slope samples into Up (slope > 0) or Down and
// only changes direction after a sustained run of the opposite sign.
type DirectionClassifier struct {
	cfg HysteresisConfig

	dir   Direction
	flips int
	run   int
}

func NewDirectionClassifier(cfg HysteresisConfig) (*DirectionClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DirectionClassifier{cfg: cfg}, nil
}

func (c *DirectionClassifier) Direction() Direction { return c.dir }

func (c *DirectionClassifier) Reset() {
	c.dir = Unknown
	c.flips = 0
	c.run = 0
}

// Update consumes one slope sample and returns the resulting direction.
func (c *DirectionClassifier) Update(slope float64) Direction {
	sign := Down
	if slope > 0 {
		sign = Up
	}
	if c.dir == Unknown {
		c.dir = sign
		return c.dir
	}
	if sign == c.dir {
		c.run = 0
		return c.dir
	}

	c.run++
	need := c.cfg.Confirm
	if c.flips == 0 {
		need = c.cfg.FirstConfirm
	}
	if c.run >= need {
		c.dir = sign
		c.flips++
		c.run = 0
	}
	return c.dir
}

// Classify runs c over the slopes available at each sample of s, in order.
func (c *DirectionClassifier) Classify(s *market.PriceSeries, slopes indicators.SlopeSeries) map[int64]Direction {
	c.Reset()
	out := make(map[int64]Direction, len(slopes))
	for _, p := range s.Points() {
		slope, ok := slopes[p.Time]
		if !ok {
			continue
		}
		out[p.Time] = c.Update(slope)
	}
	return out
}

// FilterByDirection turns every Buy whose timestamp classifies Down into a
// Sell tagged "hysteresis". Other trades pass through unchanged. The input
// slice is not modified.
func FilterByDirection(trades []market.TradeEvent, dirs map[int64]Direction) []market.TradeEvent {
	out := make([]market.TradeEvent, len(trades))
	copy(out, trades)
	for i, tr := range out {
		if tr.Action == market.Buy && dirs[tr.Time] == Down {
			out[i].Action = market.Sell
			out[i].Reason = market.ReasonHysteresis
		}
	}
	return out
}
