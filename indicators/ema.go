package indicators

import "fmt"

// EMA is an exponential moving average with alpha = 2/(span+1), seeded with
// the first sample (no SMA warmup). This matches pandas ewm(span, adjust=False).
type EMA struct {
	span  int
	alpha float64

	seen  int
	value float64
}

func NewEMA(span int) *EMA {
	if span <= 0 {
		panic("EMA span must be > 0")
	}
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

func (e *EMA) Name() string   { return fmt.Sprintf("EMA(%d)", e.span) }
func (e *EMA) Warmup() int    { return 1 }
func (e *EMA) Ready() bool    { return e.seen > 0 }
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
}

func (e *EMA) Update(x float64) {
	e.seen++
	if e.seen == 1 {
		e.value = x
		return
	}
	e.value = e.alpha*x + (1.0-e.alpha)*e.value
}
