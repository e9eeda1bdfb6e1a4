package market

import (
	"errors"
	"fmt"
	"strings"
)

// Action is the side of a trade decision.
type Action int8

const (
	Buy Action = iota + 1
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("action(%d)", int8(a))
	}
}

// ParseAction accepts "buy" or "sell" in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// Trade reasons written by the signal generators and filters.
const (
	ReasonLocalMin   = "locmin"
	ReasonTrailStop  = "tsl"
	ReasonSlope      = "slope"
	ReasonHardStop   = "stl"
	ReasonSoftStop   = "mstl"
	ReasonHysteresis = "hysteresis"
)

// TradeEvent is a decided buy or sell at a timestamp. Reason is metadata
// for auditing and never affects accounting.
type TradeEvent struct {
	Time   int64
	Action Action
	Reason string
}

var ErrNotAlternating = errors.New("trades do not alternate buy/sell")

// ValidateAlternation checks that trades start with a Buy from flat, never
// repeat an action and are sorted by timestamp.
func ValidateAlternation(trades []TradeEvent) error {
	long := false
	for i, tr := range trades {
		if i > 0 && tr.Time < trades[i-1].Time {
			return fmt.Errorf("trade %d (t=%d) precedes t=%d", i, tr.Time, trades[i-1].Time)
		}
		switch tr.Action {
		case Buy:
			if long {
				return fmt.Errorf("trade %d (t=%d): buy while long: %w", i, tr.Time, ErrNotAlternating)
			}
			long = true
		case Sell:
			if !long {
				return fmt.Errorf("trade %d (t=%d): sell while flat: %w", i, tr.Time, ErrNotAlternating)
			}
			long = false
		default:
			return fmt.Errorf("trade %d (t=%d): %v", i, tr.Time, tr.Action)
		}
	}
	return nil
}
