package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/journal"
	"github.com/rustyeddy/marginsim/market"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "marginsim",
	Short: "Margin trading simulator for spot crypto pairs",
	Long: `Marginsim replays a price series and a stream of buy/sell decisions
through a leveraged spot account and reports what it would have earned.

It provides tools for:
  - Extracting close prices from exchange kline dumps
  - Generating trades with the local-minimum and EMA-slope generators
  - Simulating margin borrowing, interest, fees and slippage
  - Sweeping parameters across worker goroutines
  - Following a live kline stream
  - Journaling runs to SQLite or CSV`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and runs it with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); built-in defaults when empty")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func loadPrices(ctx context.Context, path string) (*market.PriceSeries, error) {
	s, err := market.CSVFile{Path: path}.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prices %s: %w", path, err)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("load prices %s: no samples", path)
	}
	return s, nil
}

// openJournal returns nil when journaling is off.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(jc.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}
