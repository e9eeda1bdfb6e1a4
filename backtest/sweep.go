package backtest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rustyeddy/marginsim/config"
	"github.com/rustyeddy/marginsim/market"
)

// SweepResult pairs one configuration with its outcome.
type SweepResult struct {
	Config  *config.Config
	Outcome *Outcome
	Err     error
}

// Sweep runs every configuration over the same series on up to workers
// goroutines. Each run gets its own generators and simulator. Results come
// back in input order; configurations not started before ctx ends carry
// ctx.Err(). Sweep runs are not journaled.
func Sweep(ctx context.Context, s *market.PriceSeries, configs []*config.Config, workers int, logger *slog.Logger) []SweepResult {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]SweepResult, len(configs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			log := logger.With("worker", worker)
			for i := range jobs {
				r := &Runner{Config: configs[i], Logger: log}
				out, err := r.Run(ctx, s)
				results[i] = SweepResult{Config: configs[i], Outcome: out, Err: err}
				if err != nil {
					log.Warn("sweep run failed", "index", i, "err", err)
				}
			}
		}(w)
	}

	next := 0
dispatch:
	for ; next < len(configs); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(configs); i++ {
		results[i] = SweepResult{Config: configs[i], Err: ctx.Err()}
	}
	return results
}
