package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/backtest"
	"github.com/rustyeddy/marginsim/market"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Generate trades from a price file without simulating",
	Long: `Run the configured signal generator (and the hysteresis filter when
enabled) and write the trades as ts,action,reason rows.

Example:
  marginsim signals -c hbar.yaml --out -`,
	RunE: runSignals,
}

var (
	signalsPrices string
	signalsOut    string
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.Flags().StringVarP(&signalsPrices, "prices", "p", "", "price file (ts,price); overrides data.prices")
	signalsCmd.Flags().StringVarP(&signalsOut, "out", "o", "", `trades file, "-" for stdout; defaults to the output trades file`)
}

func runSignals(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if signalsPrices != "" {
		cfg.Data.Prices = signalsPrices
	}
	s, err := loadPrices(cmd.Context(), cfg.Data.Prices)
	if err != nil {
		return err
	}

	r := &backtest.Runner{Config: cfg}
	trades, err := r.Signals(s)
	if err != nil {
		return err
	}

	switch signalsOut {
	case "-":
		return market.WriteTrades(cmd.OutOrStdout(), trades)
	case "":
		signalsOut = cfg.Output.Path(cfg.Output.Trades)
		if signalsOut == "" {
			return fmt.Errorf("no output.trades configured; use --out")
		}
	}
	if err := market.WriteTradesFile(signalsOut, trades); err != nil {
		return fmt.Errorf("write trades: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d trades written to %s\n", len(trades), signalsOut)
	return nil
}
