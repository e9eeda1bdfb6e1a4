package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/marginsim/journal"
)

// PrintRun writes a human-readable summary of a run.
func PrintRun(w io.Writer, r journal.Run, unit string) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Created:       %s\n", r.Created.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Pair:          %s\n", r.Pair)
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.UTC().Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Round Trips:   %d\n", r.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate())

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Investment:    %s\n", Amount(r.Investment, unit))
	fmt.Fprintf(w, "Final Value:   %s\n", Amount(r.FinalValue, unit))
	fmt.Fprintf(w, "Net P/L:       %s\n", Amount(r.NetPL(), unit))
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	if r.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	}
	fmt.Fprintf(w, "Interest:      %s\n", Amount(r.InterestCost, unit))
	fmt.Fprintf(w, "Fees:          %s\n", Amount(r.FeesCost, unit))

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Notes")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, n := range r.Notes {
			fmt.Fprintf(w, "- %s\n", n)
		}
	}
	fmt.Fprintln(w, "==================================================")
}
