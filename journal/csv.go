package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/marginsim/sim"
)

var runsHeader = []string{
	"run_id", "created", "pair", "dataset", "strategy", "start", "end",
	"investment", "final_value", "interest_cost", "fees_cost", "return_pct", "max_dd_pct",
	"round_trips", "wins", "losses", "notes",
}

// CSV journals runs as plain files in a directory: runs.csv gets one row
// per run, <run_id>_fills.csv and <run_id>_values.csv hold the details.
type CSV struct {
	dir  string
	runs *os.File
	w    *csv.Writer
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "runs.csv")
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	rf, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(rf)
	if fresh {
		if err := w.Write(runsHeader); err != nil {
			rf.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			rf.Close()
			return nil, err
		}
	}
	return &CSV{dir: dir, runs: rf, w: w}, nil
}

func (j *CSV) RecordRun(_ context.Context, r Run, fills []sim.Fill, values []sim.ValuePoint) error {
	if err := j.writeFills(r.RunID, fills); err != nil {
		return err
	}
	if err := j.writeValues(r.RunID, values); err != nil {
		return err
	}

	err := j.w.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Pair,
		r.Dataset,
		r.Strategy,
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		f(r.Investment),
		f(r.FinalValue),
		f(r.InterestCost),
		f(r.FeesCost),
		f(r.ReturnPct),
		f(r.MaxDDPct),
		strconv.Itoa(r.RoundTrips),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strings.Join(r.Notes, "; "),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) writeFills(runID string, fills []sim.Fill) error {
	rows := [][]string{{
		"time", "action", "reason", "execution_price", "effective_price",
		"shares", "fee", "borrowed", "debt", "cash", "value",
	}}
	for _, fl := range fills {
		rows = append(rows, []string{
			strconv.FormatInt(fl.Time, 10),
			fl.Action.String(),
			fl.Reason,
			f(fl.ExecutionPrice),
			f(fl.EffectivePrice),
			f(fl.Shares),
			f(fl.Fee),
			f(fl.Borrowed),
			f(fl.Debt),
			f(fl.Cash),
			f(fl.Value),
		})
	}
	return writeAll(filepath.Join(j.dir, runID+"_fills.csv"), rows)
}

func (j *CSV) writeValues(runID string, values []sim.ValuePoint) error {
	rows := [][]string{{"time", "value"}}
	for _, v := range values {
		rows = append(rows, []string{strconv.FormatInt(v.Time, 10), f(v.Value)})
	}
	return writeAll(filepath.Join(j.dir, runID+"_values.csv"), rows)
}

func writeAll(path string, rows [][]string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csv.NewWriter(fh).WriteAll(rows); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.runs.Close()
		return err
	}
	return j.runs.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
