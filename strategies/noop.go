package strategies

import "github.com/rustyeddy/marginsim/market"

// Noop never trades; the account stays in cash.
type Noop struct{}

func (Noop) Name() string { return "noop" }
func (Noop) Reset()       {}

func (Noop) OnPrice(market.PricePoint) (market.TradeEvent, bool) {
	return market.TradeEvent{}, false
}

// OpenOnce buys at the first sample and holds to the end.
type OpenOnce struct {
	opened bool
}

func (s *OpenOnce) Name() string { return "open-once" }
func (s *OpenOnce) Reset()       { s.opened = false }

func (s *OpenOnce) OnPrice(p market.PricePoint) (market.TradeEvent, bool) {
	if s.opened {
		return market.TradeEvent{}, false
	}
	s.opened = true
	return market.TradeEvent{Time: p.Time, Action: market.Buy, Reason: "open"}, true
}
