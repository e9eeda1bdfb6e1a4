package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/backtest"
	"github.com/rustyeddy/marginsim/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate trades from a price file and simulate them",
	Long: `Run the configured signal generator over the price file, simulate the
resulting trades and write the trades, portfolio, untouched portfolio,
margin and costs files to the output directory.

Example:
  marginsim run -c hbar.yaml
  marginsim run -c hbar.yaml --prices data/asset.txt`,
	RunE: runRun,
}

var runPrices string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runPrices, "prices", "p", "", "price file (ts,price); overrides data.prices")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runPrices != "" {
		cfg.Data.Prices = runPrices
	}

	ctx := cmd.Context()
	s, err := loadPrices(ctx, cfg.Data.Prices)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	r := &backtest.Runner{Config: cfg, Journal: j, Dataset: cfg.Data.Prices}
	out, err := r.Run(ctx, s)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := backtest.WriteOutputs(out, cfg.Output); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	report.PrintRun(cmd.OutOrStdout(), out.Run, cfg.Output.Unit)
	return nil
}
