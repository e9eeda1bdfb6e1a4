package market

import "sort"

// EventKind tags the variant held by an Event.
type EventKind int8

const (
	KindPrice EventKind = iota + 1
	KindTrade
	KindOther
)

func (k EventKind) String() string {
	switch k {
	case KindPrice:
		return "price"
	case KindTrade:
		return "trade"
	default:
		return "other"
	}
}

// Event is one entry of the merged chronological stream consumed by the
// simulator. Price is set for KindPrice, Trade for KindTrade.
type Event struct {
	Kind  EventKind
	Time  int64
	Price float64
	Trade TradeEvent
}

func PriceEvents(s *PriceSeries) []Event {
	out := make([]Event, 0, s.Len())
	for _, p := range s.Points() {
		out = append(out, Event{Kind: KindPrice, Time: p.Time, Price: p.Price})
	}
	return out
}

func TradeEvents(trades []TradeEvent) []Event {
	out := make([]Event, 0, len(trades))
	for _, tr := range trades {
		out = append(out, Event{Kind: KindTrade, Time: tr.Time, Trade: tr})
	}
	return out
}

// MergeEvents concatenates a then b and stable-sorts by timestamp only, so
// events sharing a timestamp keep their concatenation order.
func MergeEvents(a, b []Event) []Event {
	out := make([]Event, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Merge builds the simulator input from a price series and trade decisions.
// At equal timestamps price events come before trade events.
func Merge(s *PriceSeries, trades []TradeEvent) []Event {
	return MergeEvents(PriceEvents(s), TradeEvents(trades))
}
