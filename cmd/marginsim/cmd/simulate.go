package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/backtest"
	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/report"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an existing trades file against a price file",
	Long: `Replay a ts,action,reason trades file against the price file. Every
trade timestamp must have an exact price.

Example:
  marginsim simulate -c hbar.yaml --trades output/trades.txt`,
	RunE: runSimulate,
}

var (
	simulatePrices string
	simulateTrades string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simulatePrices, "prices", "p", "", "price file (ts,price); overrides data.prices")
	simulateCmd.Flags().StringVarP(&simulateTrades, "trades", "t", "", "trades file (ts,action,reason); overrides data.trades")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if simulatePrices != "" {
		cfg.Data.Prices = simulatePrices
	}
	if simulateTrades != "" {
		cfg.Data.Trades = simulateTrades
	}
	if cfg.Data.Trades == "" {
		return fmt.Errorf("no trades file: set data.trades or use --trades")
	}

	ctx := cmd.Context()
	s, err := loadPrices(ctx, cfg.Data.Prices)
	if err != nil {
		return err
	}
	trades, err := market.ReadTradesFile(cfg.Data.Trades)
	if err != nil {
		return fmt.Errorf("load trades %s: %w", cfg.Data.Trades, err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	r := &backtest.Runner{Config: cfg, Journal: j, Dataset: cfg.Data.Prices}
	out, err := r.Simulate(ctx, s, trades)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	// the trades file is an input here
	oc := cfg.Output
	oc.Trades = ""
	if err := backtest.WriteOutputs(out, oc); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	report.PrintRun(cmd.OutOrStdout(), out.Run, cfg.Output.Unit)
	return nil
}
