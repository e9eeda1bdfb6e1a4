// Package indicators provides streaming indicators and rolling windows used
// by the signal generators.
package indicators

// Indicator computes a single streaming value from price samples.
// It is deterministic and safe to use in live, replay, and backtests.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next sample.
	Update(x float64)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value. Callers should check Ready().
	Value() float64
}
