package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/sim"
)

var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, created, pair, dataset, strategy, config, start_time, end_time,
	investment, final_value, interest_cost, fees_cost, return_pct, max_dd_pct,
	round_trips, wins, losses, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r     Run
		notes string
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Pair, &r.Dataset, &r.Strategy, &r.Config,
		&r.Start, &r.End,
		&r.Investment, &r.FinalValue, &r.InterestCost, &r.FeesCost, &r.ReturnPct, &r.MaxDDPct,
		&r.RoundTrips, &r.Wins, &r.Losses, &notes,
	)
	if err != nil {
		return Run{}, err
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns runs newest first. limit <= 0 returns all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFills returns the fills of a run in execution order.
func (j *SQLite) ListFills(ctx context.Context, runID string) ([]sim.Fill, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, action, reason, execution_price, effective_price,
		       shares, fee, borrowed, debt, cash, value
		FROM fills
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Fill
	for rows.Next() {
		var (
			f      sim.Fill
			action string
		)
		if err := rows.Scan(
			&f.Time, &action, &f.Reason, &f.ExecutionPrice, &f.EffectivePrice,
			&f.Shares, &f.Fee, &f.Borrowed, &f.Debt, &f.Cash, &f.Value,
		); err != nil {
			return nil, err
		}
		if f.Action, err = market.ParseAction(action); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListValues returns the portfolio value series of a run.
func (j *SQLite) ListValues(ctx context.Context, runID string) ([]sim.ValuePoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, value FROM run_values
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.ValuePoint
	for rows.Next() {
		var v sim.ValuePoint
		if err := rows.Scan(&v.Time, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
