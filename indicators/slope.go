package indicators

import (
	"fmt"

	"github.com/rustyeddy/marginsim/market"
)

// SlopeSeries maps a timestamp to the first difference of a smoothed series
// ending at that timestamp.
type SlopeSeries map[int64]float64

// EMASlope is the first difference of consecutive EMA values. It needs two
// samples before it is ready.
type EMASlope struct {
	ema   *EMA
	prev  float64
	value float64
	seen  int
}

func NewEMASlope(span int) *EMASlope {
	return &EMASlope{ema: NewEMA(span)}
}

func (s *EMASlope) Name() string   { return fmt.Sprintf("EMASlope(%d)", s.ema.span) }
func (s *EMASlope) Warmup() int    { return 2 }
func (s *EMASlope) Ready() bool    { return s.seen >= 2 }
func (s *EMASlope) Value() float64 { return s.value }

func (s *EMASlope) Reset() {
	s.ema.Reset()
	s.prev, s.value, s.seen = 0, 0, 0
}

func (s *EMASlope) Update(x float64) {
	s.ema.Update(x)
	s.seen++
	v := s.ema.Value()
	if s.seen > 1 {
		s.value = v - s.prev
	}
	s.prev = v
}

// EMASlopes smooths the series with an EMA of the given span and returns the
// first difference of consecutive EMA values keyed by the later timestamp.
// The first sample has no slope. With duplicate timestamps the later slope
// overwrites the earlier one.
func EMASlopes(s *market.PriceSeries, span int) SlopeSeries {
	ind := NewEMASlope(span)
	out := make(SlopeSeries, s.Len())
	for _, p := range s.Points() {
		ind.Update(p.Price)
		if ind.Ready() {
			out[p.Time] = ind.Value()
		}
	}
	return out
}
