package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/marginsim/sim"
)

// WriteValues writes one "ts,value" line per point with the value rounded
// to two decimals. There is no header.
func WriteValues(w io.Writer, values []sim.ValuePoint) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := fmt.Fprintf(bw, "%s,%s\n", strconv.FormatInt(v.Time, 10), Round2(v.Value).StringFixed(2)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Costs is the content of the costs file.
type Costs struct {
	Interest       float64
	Fees           float64
	FinalValue     float64
	ValueNetOfFees float64
}

// CostsOf collects the costs file fields from a finished run.
func CostsOf(r *sim.Result) Costs {
	return Costs{
		Interest:       r.Costs.Interest,
		Fees:           r.Costs.Fees,
		FinalValue:     r.FinalValue(),
		ValueNetOfFees: r.ValueNetOfFees(),
	}
}

// WriteCosts writes the named totals as "key,amount unit" lines.
func WriteCosts(w io.Writer, c Costs, unit string) error {
	rows := []struct {
		key string
		v   float64
	}{
		{"total_interest_cost", c.Interest},
		{"total_fees_cost", c.Fees},
		{"final_portfolio", c.FinalValue},
		{"portfolio_including_fees", c.ValueNetOfFees},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s,%s\n", r.key, Amount(r.v, unit)); err != nil {
			return err
		}
	}
	return nil
}

// WriteValuesFile creates path and writes values to it.
func WriteValuesFile(path string, values []sim.ValuePoint) error {
	return writeFile(path, func(w io.Writer) error { return WriteValues(w, values) })
}

// WriteCostsFile creates path and writes the costs to it.
func WriteCostsFile(path string, c Costs, unit string) error {
	return writeFile(path, func(w io.Writer) error { return WriteCosts(w, c, unit) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
