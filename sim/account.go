package sim

import "github.com/rustyeddy/marginsim/market"

// Account is the all-in position of a single run. Buys spend all cash and
// sells liquidate all shares.
type Account struct {
	Shares float64
	Cash   float64
	Debt   float64

	// LastTime is the timestamp of the last processed event, nil before
	// the first one.
	LastTime *int64
}

// NetValue is shares marked at price plus cash minus debt.
func (a Account) NetValue(price float64) float64 {
	return a.Shares*price + a.Cash - a.Debt
}

// payFromCash settles amount from cash and rolls any shortfall into debt.
func (a *Account) payFromCash(amount float64) {
	if a.Cash >= amount {
		a.Cash -= amount
		return
	}
	a.Debt += amount - a.Cash
	a.Cash = 0
}

// Costs accumulate over a run and never decrease.
type Costs struct {
	Interest float64
	Fees     float64
}

// ValuePoint is one entry of the portfolio value series.
type ValuePoint struct {
	Time  int64
	Value float64
}

// Fill records how one trade was executed and the account right after it.
type Fill struct {
	Time   int64
	Action market.Action
	Reason string

	ExecutionPrice float64
	EffectivePrice float64 // after slippage

	Shares   float64 // bought or sold
	Fee      float64
	Borrowed float64

	Debt  float64
	Cash  float64
	Value float64
}
