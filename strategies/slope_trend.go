package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/marginsim/indicators"
	"github.com/rustyeddy/marginsim/market"
)

// SlopeTrendConfig configures the EMA-slope trend follower.
type SlopeTrendConfig struct {
	// WindowSize is the number of coarse slope samples averaged.
	WindowSize int `json:"window_size" yaml:"window_size"`

	PositiveLimit float64 `json:"positive_slope_limit" yaml:"positive_slope_limit"`
	NegativeLimit float64 `json:"negative_slope_limit" yaml:"negative_slope_limit"`

	// Stop limits on the micro slope mean; HardStopLimit < SoftStopLimit < 0.
	HardStopLimit float64 `json:"hard_stop_limit" yaml:"hard_stop_limit"`
	SoftStopLimit float64 `json:"soft_stop_limit" yaml:"soft_stop_limit"`

	// MicroWindow is the trailing time span of micro slopes averaged.
	MicroWindow time.Duration `json:"micro_window" yaml:"micro_window"`

	// No entries for GeneralPause after a hard stop, SoftPause after a soft stop.
	GeneralPause time.Duration `json:"general_pause" yaml:"general_pause"`
	SoftPause    time.Duration `json:"soft_pause" yaml:"soft_pause"`
}

func SlopeTrendDefaults() SlopeTrendConfig {
	return SlopeTrendConfig{
		WindowSize:    400,
		HardStopLimit: -0.45,
		SoftStopLimit: -0.025,
		MicroWindow:   7 * time.Minute,
		GeneralPause:  168 * time.Hour,
		SoftPause:     72 * time.Hour,
	}
}

func (c SlopeTrendConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("slope: window_size must be positive, got %d", c.WindowSize)
	}
	if c.HardStopLimit >= 0 || c.SoftStopLimit >= 0 {
		return fmt.Errorf("slope: stop limits must be negative (hard=%v soft=%v)", c.HardStopLimit, c.SoftStopLimit)
	}
	if c.MicroWindow < 0 || c.GeneralPause < 0 || c.SoftPause < 0 {
		return fmt.Errorf("slope: durations must not be negative")
	}
	return nil
}

// SlopeTrend enters when the rolling mean of the coarse EMA slope turns
// positive and exits when it turns non-positive. A faster micro EMA slope,
// averaged over a trailing time span, drives two stop-losses that also pause
// new entries.
type SlopeTrend struct {
	cfg SlopeTrendConfig

	coarse indicators.SlopeSeries
	micro  indicators.SlopeSeries

	window      *indicators.Window
	microWindow *indicators.TimeWindow

	inMarket  bool
	hardPause *int64
	softPause *int64
}

func NewSlopeTrend(cfg SlopeTrendConfig, coarse, micro indicators.SlopeSeries) (*SlopeTrend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SlopeTrend{
		cfg:         cfg,
		coarse:      coarse,
		micro:       micro,
		window:      indicators.NewWindow(cfg.WindowSize),
		microWindow: indicators.NewTimeWindow(seconds(cfg.MicroWindow)),
	}, nil
}

func (s *SlopeTrend) Name() string { return fmt.Sprintf("slope(%d)", s.cfg.WindowSize) }

func (s *SlopeTrend) Reset() {
	s.window.Reset()
	s.microWindow.Reset()
	s.inMarket = false
	s.hardPause = nil
	s.softPause = nil
}

// OnPrice looks up both slopes at p.Time; samples missing either are skipped.
func (s *SlopeTrend) OnPrice(p market.PricePoint) (market.TradeEvent, bool) {
	slope, ok := s.coarse[p.Time]
	if !ok {
		return market.TradeEvent{}, false
	}
	micro, ok := s.micro[p.Time]
	if !ok {
		return market.TradeEvent{}, false
	}
	return s.OnSlope(p.Time, slope, micro)
}

// OnSlope consumes one pair of slope samples.
func (s *SlopeTrend) OnSlope(t int64, slope, micro float64) (market.TradeEvent, bool) {
	s.window.Push(slope)
	s.microWindow.Push(t, micro)

	if !s.window.Full() {
		return market.TradeEvent{}, false
	}
	avg, _ := s.window.Mean()
	avgMicro, haveMicro := s.microWindow.Mean()

	// stops are checked before trend entries so a stop tick never re-enters
	switch {
	case s.inMarket && haveMicro && avgMicro < s.cfg.HardStopLimit:
		s.inMarket = false
		s.hardPause = &t
		return market.TradeEvent{Time: t, Action: market.Sell, Reason: market.ReasonHardStop}, true

	case s.inMarket && haveMicro && avgMicro < s.cfg.SoftStopLimit:
		s.inMarket = false
		s.softPause = &t
		return market.TradeEvent{Time: t, Action: market.Sell, Reason: market.ReasonSoftStop}, true

	case s.inMarket && avg <= s.cfg.NegativeLimit:
		s.inMarket = false
		return market.TradeEvent{Time: t, Action: market.Sell, Reason: market.ReasonSlope}, true

	case !s.inMarket && avg > s.cfg.PositiveLimit && !s.paused(t):
		s.inMarket = true
		return market.TradeEvent{Time: t, Action: market.Buy, Reason: market.ReasonSlope}, true
	}
	return market.TradeEvent{}, false
}

func (s *SlopeTrend) paused(t int64) bool {
	if s.hardPause != nil && t < *s.hardPause+seconds(s.cfg.GeneralPause) {
		return true
	}
	if s.softPause != nil && t < *s.softPause+seconds(s.cfg.SoftPause) {
		return true
	}
	return false
}
