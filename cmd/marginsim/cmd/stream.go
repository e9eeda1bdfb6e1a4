package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/backtest"
	"github.com/rustyeddy/marginsim/feed/binance"
	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/report"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Paper-trade the configured generator on the live 1m kline stream",
	Long: `Follow the exchange 1m kline stream for the configured pair, feed every
closed kline to the signal generator and the simulator, and report when
interrupted (Ctrl-C) or after --duration.

Example:
  marginsim stream -c hbar.yaml --duration 6h --record output/live.txt`,
	RunE: runStream,
}

var (
	streamPair     string
	streamDuration time.Duration
	streamRecord   string
)

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().StringVar(&streamPair, "pair", "", "pair to follow; overrides pair")
	streamCmd.Flags().DurationVarP(&streamDuration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	streamCmd.Flags().StringVar(&streamRecord, "record", "", "append received prices to this ts,price file")
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if streamPair != "" {
		cfg.Pair = streamPair
	}

	live, err := backtest.NewLive(cfg, slog.Default())
	if err != nil {
		return err
	}

	var record *os.File
	if streamRecord != "" {
		record, err = os.OpenFile(streamRecord, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer record.Close()
	}

	ctx := cmd.Context()
	if streamDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, streamDuration)
		defer cancel()
	}

	feed := &binance.Stream{
		URL:          cfg.Stream.URL,
		Pair:         cfg.Pair,
		Logger:       slog.Default(),
		MinBackoff:   cfg.Stream.MinBackoff,
		MaxBackoff:   cfg.Stream.MaxBackoff,
		ReadDeadline: cfg.Stream.ReadDeadline,
	}
	points := make(chan market.PricePoint, 16)
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx, points) }()

	fmt.Fprintf(cmd.OutOrStdout(), "Streaming %s from %s (generator %s)\n", cfg.Pair, feed.Endpoint(), cfg.Signals.Generator)

	handle := func(p market.PricePoint) error {
		if err := live.OnPrice(p); err != nil {
			return err
		}
		if record != nil {
			if err := market.WritePrices(record, []market.PricePoint{p}); err != nil {
				return fmt.Errorf("record price: %w", err)
			}
		}
		acct := live.Account()
		slog.Debug("kline", "t", p.Time, "price", p.Price, "shares", acct.Shares, "debt", acct.Debt)
		return nil
	}

loop:
	for {
		select {
		case err := <-done:
			if ctx.Err() == nil {
				return fmt.Errorf("stream: %w", err)
			}
			// drain what the feed delivered before stopping
			for {
				select {
				case p := <-points:
					if err := handle(p); err != nil {
						return err
					}
				default:
					break loop
				}
			}
		case p := <-points:
			if err := handle(p); err != nil {
				return err
			}
		}
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	// ctx is done by now; record with a fresh one
	r := &backtest.Runner{Config: cfg, Journal: j, Dataset: "stream:" + cfg.Pair}
	out, err := r.Finish(context.Background(), live)
	if err != nil {
		return err
	}
	if err := backtest.WriteOutputs(out, cfg.Output); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	report.PrintRun(cmd.OutOrStdout(), out.Run, cfg.Output.Unit)
	return nil
}
