package strategies

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/marginsim/indicators"
	"github.com/rustyeddy/marginsim/market"
)

// Generator is a streaming trade-signal generator. OnPrice is called once
// per price sample in timestamp order and returns a trade decision when one
// fires. Generators emit alternating Buy/Sell starting from flat.
type Generator interface {
	Name() string
	Reset()
	OnPrice(p market.PricePoint) (market.TradeEvent, bool)
}

// Run resets g and drives it over every sample of s.
func Run(g Generator, s *market.PriceSeries) []market.TradeEvent {
	g.Reset()
	var out []market.TradeEvent
	for _, p := range s.Points() {
		if tr, ok := g.OnPrice(p); ok {
			out = append(out, tr)
		}
	}
	return out
}

// Params collects the settings of every generator so one can be picked by
// name from configuration.
type Params struct {
	LocalMin   LocalMinConfig
	SlopeTrend SlopeTrendConfig

	// EMA spans (in samples) used to derive the coarse and micro slope series.
	EMASpan      int
	MicroEMASpan int
}

type factory func(s *market.PriceSeries, p Params) (Generator, error)

var registry = map[string]factory{
	"noop": func(*market.PriceSeries, Params) (Generator, error) { return Noop{}, nil },
	"open-once": func(*market.PriceSeries, Params) (Generator, error) {
		return &OpenOnce{}, nil
	},
	"locmin": func(_ *market.PriceSeries, p Params) (Generator, error) {
		return NewLocalMin(p.LocalMin)
	},
	"slope": func(s *market.PriceSeries, p Params) (Generator, error) {
		if p.EMASpan <= 0 || p.MicroEMASpan <= 0 {
			return nil, fmt.Errorf("slope: ema spans must be positive (ema=%d micro=%d)", p.EMASpan, p.MicroEMASpan)
		}
		return NewSlopeTrend(p.SlopeTrend,
			indicators.EMASlopes(s, p.EMASpan),
			indicators.EMASlopes(s, p.MicroEMASpan))
	},
}

// Names lists the registered generator names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Canonical normalizes a generator name for lookup.
func Canonical(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Known reports whether name is a registered generator.
func Known(name string) bool {
	_, ok := registry[Canonical(name)]
	return ok
}

// ByName builds the named generator for series s.
func ByName(name string, s *market.PriceSeries, p Params) (Generator, error) {
	f, ok := registry[Canonical(name)]
	if !ok {
		return nil, fmt.Errorf("unknown generator %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(s, p)
}

func seconds(d time.Duration) int64 { return int64(d / time.Second) }
