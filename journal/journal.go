// journal/journal.go
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/marginsim/sim"
)

// Run mirrors the runs table: one completed simulation and its headline
// numbers.
type Run struct {
	RunID   string
	Created time.Time

	Pair     string
	Dataset  string
	Strategy string
	Config   []byte // effective config, yaml

	// Price series span
	Start time.Time
	End   time.Time

	Investment   float64
	FinalValue   float64
	InterestCost float64
	FeesCost     float64

	ReturnPct float64
	MaxDDPct  float64

	RoundTrips int
	Wins       int
	Losses     int

	Notes []string
}

// WinRate is wins over round trips in percent.
func (r Run) WinRate() float64 {
	if r.RoundTrips == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.RoundTrips) * 100
}

// NetPL is the final value minus the investment.
func (r Run) NetPL() float64 { return r.FinalValue - r.Investment }

// Journal persists completed runs.
type Journal interface {
	RecordRun(ctx context.Context, run Run, fills []sim.Fill, values []sim.ValuePoint) error
	Close() error
}
