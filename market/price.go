package market

import (
	"errors"
	"fmt"
)

// ErrPriceNotFound is returned when a timestamp has no observed price.
var ErrPriceNotFound = errors.New("price not found")

// PricePoint is a single observed close price at a Unix timestamp (seconds).
type PricePoint struct {
	Time  int64
	Price float64
}

// PriceSeries is an ordered sequence of price samples plus a timestamp index
// used to resolve the execution price of trade events. Duplicate timestamps
// are kept in the sequence; the index holds the last price seen for each.
type PriceSeries struct {
	points []PricePoint
	index  map[int64]float64
}

// NewPriceSeries validates and indexes points. Points must be sorted by
// non-decreasing timestamp and carry positive prices.
func NewPriceSeries(points []PricePoint) (*PriceSeries, error) {
	s := &PriceSeries{
		points: make([]PricePoint, 0, len(points)),
		index:  make(map[int64]float64, len(points)),
	}
	for i, p := range points {
		if p.Price <= 0 {
			return nil, fmt.Errorf("price series: point %d (t=%d) has non-positive price %v", i, p.Time, p.Price)
		}
		if i > 0 && p.Time < points[i-1].Time {
			return nil, fmt.Errorf("price series: point %d (t=%d) precedes t=%d", i, p.Time, points[i-1].Time)
		}
		s.points = append(s.points, p)
		s.index[p.Time] = p.Price
	}
	return s, nil
}

func (s *PriceSeries) Len() int { return len(s.points) }

// Points returns the samples in order. Callers must not modify the slice.
func (s *PriceSeries) Points() []PricePoint { return s.points }

// At returns the i-th sample.
func (s *PriceSeries) At(i int) PricePoint { return s.points[i] }

// PriceAt returns the price observed at exactly t. There is no interpolation.
func (s *PriceSeries) PriceAt(t int64) (float64, error) {
	p, ok := s.index[t]
	if !ok {
		return 0, fmt.Errorf("t=%d: %w", t, ErrPriceNotFound)
	}
	return p, nil
}

// PriceAtOrBefore returns the latest price whose timestamp is <= t.
func (s *PriceSeries) PriceAtOrBefore(t int64) (float64, bool) {
	// binary search for the first point after t
	lo, hi := 0, len(s.points)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.points[mid].Time <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0, false
	}
	return s.points[lo-1].Price, true
}

// Span returns the first and last timestamps of the series.
func (s *PriceSeries) Span() (start, end int64, ok bool) {
	if len(s.points) == 0 {
		return 0, 0, false
	}
	return s.points[0].Time, s.points[len(s.points)-1].Time, true
}

// PriceIndex is a growable timestamp to price map for live streams, where
// the series is not known up front.
type PriceIndex map[int64]float64

func (ix PriceIndex) PriceAt(t int64) (float64, error) {
	p, ok := ix[t]
	if !ok {
		return 0, fmt.Errorf("t=%d: %w", t, ErrPriceNotFound)
	}
	return p, nil
}
