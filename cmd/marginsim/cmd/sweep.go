package cmd

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/backtest"
	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/report"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run every generator and margin combination over one price file",
	Long: `Sweep runs the cross product of generators and margins concurrently and
prints one line per combination. Sweep runs are not journaled and write no
output files.

Example:
  marginsim sweep -c hbar.yaml --generators locmin,slope --margins 0,1,2,4`,
	RunE: runSweep,
}

var (
	sweepPrices     string
	sweepGenerators []string
	sweepMargins    []float64
	sweepWorkers    int
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVarP(&sweepPrices, "prices", "p", "", "price file (ts,price); overrides data.prices")
	sweepCmd.Flags().StringSliceVarP(&sweepGenerators, "generators", "g", nil, "generators to try (default: the configured one)")
	sweepCmd.Flags().Float64SliceVarP(&sweepMargins, "margins", "m", nil, "margins to try (default: the configured one)")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", runtime.NumCPU(), "concurrent runs")
}

// sweepConfigs expands base into one config per generator and margin.
func sweepConfigs(base *config.Config, generators []string, margins []float64) ([]*config.Config, error) {
	if len(generators) == 0 {
		generators = []string{base.Signals.Generator}
	}
	if len(margins) == 0 {
		margins = []float64{base.Account.Margin}
	}

	var out []*config.Config
	for _, g := range generators {
		for _, m := range margins {
			c := *base
			c.Signals.Generator = g
			c.Account.Margin = m
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("generator %s margin %v: %w", g, m, err)
			}
			out = append(out, &c)
		}
	}
	return out, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if sweepPrices != "" {
		cfg.Data.Prices = sweepPrices
	}
	configs, err := sweepConfigs(cfg, sweepGenerators, sweepMargins)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := loadPrices(ctx, cfg.Data.Prices)
	if err != nil {
		return err
	}

	results := backtest.Sweep(ctx, s, configs, sweepWorkers, nil)

	unit := cfg.Output.Unit
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATOR\tMARGIN\tTRADES\tFINAL\tRETURN\tMAX DD\tINTEREST\tFEES")
	failed := 0
	for _, res := range results {
		g, m := res.Config.Signals.Generator, res.Config.Account.Margin
		if res.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%g\terror: %v\t\t\t\t\t\n", g, m, res.Err)
			continue
		}
		sum := res.Outcome.Summary
		fmt.Fprintf(tw, "%s\t%g\t%d\t%s\t%.2f%%\t%.2f%%\t%s\t%s\n",
			g, m, len(res.Outcome.Trades),
			report.Amount(sum.FinalValue, unit),
			sum.ReturnPct, sum.MaxDrawdownPct,
			report.Amount(sum.InterestCost, unit),
			report.Amount(sum.FeesCost, unit))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sweep runs failed", failed, len(results))
	}
	return nil
}
