package backtest

import (
	"fmt"
	"os"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/report"
)

// WriteOutputs writes the files named in out. Empty names are skipped.
func WriteOutputs(o *Outcome, out config.OutputConfig) error {
	if out.Dir != "" {
		if err := os.MkdirAll(out.Dir, 0o755); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
	}

	if p := out.Path(out.Trades); p != "" {
		if err := market.WriteTradesFile(p, o.Trades); err != nil {
			return err
		}
	}
	if p := out.Path(out.Portfolio); p != "" {
		if err := report.WriteValuesFile(p, o.Result.Values); err != nil {
			return err
		}
	}
	if p := out.Path(out.Untouched); p != "" {
		if err := report.WriteValuesFile(p, o.Untouched); err != nil {
			return err
		}
	}
	if p := out.Path(out.Margin); p != "" {
		if err := report.WriteValuesFile(p, o.Margin); err != nil {
			return err
		}
	}
	if p := out.Path(out.Costs); p != "" {
		if err := report.WriteCostsFile(p, report.CostsOf(o.Result), out.Unit); err != nil {
			return err
		}
	}
	return nil
}
