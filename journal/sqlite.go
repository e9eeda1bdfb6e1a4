package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/marginsim/sim"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordRun stores the run with its fills and value series in a single
// transaction.
func (j *SQLite) RecordRun(ctx context.Context, r Run, fills []sim.Fill, values []sim.ValuePoint) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, pair, dataset, strategy, config, start_time, end_time,
		 investment, final_value, interest_cost, fees_cost, return_pct, max_dd_pct,
		 round_trips, wins, losses, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Pair, r.Dataset, r.Strategy, r.Config,
		r.Start.UTC(), r.End.UTC(),
		r.Investment, r.FinalValue, r.InterestCost, r.FeesCost, r.ReturnPct, r.MaxDDPct,
		r.RoundTrips, r.Wins, r.Losses, strings.Join(r.Notes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	fstmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fills
		(run_id, seq, time, action, reason, execution_price, effective_price,
		 shares, fee, borrowed, debt, cash, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fstmt.Close()
	for i, f := range fills {
		if _, err := fstmt.ExecContext(ctx,
			r.RunID, i, f.Time, f.Action.String(), f.Reason, f.ExecutionPrice, f.EffectivePrice,
			f.Shares, f.Fee, f.Borrowed, f.Debt, f.Cash, f.Value,
		); err != nil {
			return fmt.Errorf("insert fill %d: %w", i, err)
		}
	}

	vstmt, err := tx.PrepareContext(ctx, `INSERT INTO run_values (run_id, seq, time, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer vstmt.Close()
	for i, v := range values {
		if _, err := vstmt.ExecContext(ctx, r.RunID, i, v.Time, v.Value); err != nil {
			return fmt.Errorf("insert value %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
