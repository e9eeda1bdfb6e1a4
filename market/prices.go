package market

import "context"

// PriceSource yields price samples sorted by timestamp. Implementations live
// outside the simulator (files, exchange streams).
type PriceSource interface {
	Prices(ctx context.Context) (*PriceSeries, error)
}
