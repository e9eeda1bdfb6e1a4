package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/market"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Extract a ts,price file from an exchange kline dump",
	Long: `Filter a pipe-separated kline dump (time|open|high|close|...) to the
configured UTC date range and write time,close rows. Both dates are
inclusive at midnight UTC.

Example:
  marginsim asset -c hbar.yaml --raw data/HBARUSDC.txt --from 2024-01-01 --to 2024-06-30`,
	RunE: runAsset,
}

var (
	assetRaw  string
	assetOut  string
	assetFrom string
	assetTo   string
)

func init() {
	rootCmd.AddCommand(assetCmd)
	assetCmd.Flags().StringVar(&assetRaw, "raw", "", "kline dump; overrides data.raw")
	assetCmd.Flags().StringVarP(&assetOut, "out", "o", "", "price file to write; defaults to data.prices")
	assetCmd.Flags().StringVar(&assetFrom, "from", "", "first date (YYYY-MM-DD); overrides data.from")
	assetCmd.Flags().StringVar(&assetTo, "to", "", "last date (YYYY-MM-DD); overrides data.to")
}

func runAsset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if assetRaw != "" {
		cfg.Data.Raw = assetRaw
	}
	if assetFrom != "" {
		cfg.Data.From = assetFrom
	}
	if assetTo != "" {
		cfg.Data.To = assetTo
	}
	if assetOut == "" {
		assetOut = cfg.Data.Prices
	}
	if cfg.Data.Raw == "" {
		return fmt.Errorf("no kline dump: set data.raw or use --raw")
	}

	from, to, err := cfg.Data.Range()
	if err != nil {
		return err
	}

	n, err := filterAsset(cfg.Data, assetOut, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d prices written to %s\n", n, assetOut)
	return nil
}

func filterAsset(d config.DataConfig, out string, from, to time.Time) (int, error) {
	in, err := os.Open(d.Raw)
	if err != nil {
		return 0, fmt.Errorf("open kline dump: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	n, err := market.FilterAsset(in, f, from, to)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("filter %s: %w", d.Raw, err)
	}
	return n, f.Close()
}
