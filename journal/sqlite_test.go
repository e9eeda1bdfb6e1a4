package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginsim/market"
	"github.com/rustyeddy/marginsim/sim"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func sampleRun(id string, created time.Time) Run {
	return Run{
		RunID:        id,
		Created:      created,
		Pair:         "HBARUSDC",
		Dataset:      "asset.txt",
		Strategy:     "locmin",
		Config:       []byte("investment: 1000\n"),
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Investment:   1000,
		FinalValue:   1250.5,
		InterestCost: 3.25,
		FeesCost:     12.75,
		ReturnPct:    25.05,
		MaxDDPct:     8.5,
		RoundTrips:   4,
		Wins:         3,
		Losses:       1,
		Notes:        []string{"first note", "second note"},
	}
}

func sampleFills() []sim.Fill {
	return []sim.Fill{
		{Time: 100, Action: market.Buy, Reason: "locmin", ExecutionPrice: 10, EffectivePrice: 10.01,
			Shares: 499.5, Fee: 5, Borrowed: 4000, Debt: 4000, Value: 995},
		{Time: 200, Action: market.Sell, Reason: "tsl", ExecutionPrice: 11, EffectivePrice: 10.99,
			Shares: 499.5, Fee: 5.49, Cash: 1484.02, Value: 1484.02},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	_, path := newTestSQLite(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["fills"])
	assert.True(t, found["run_values"])
}

func TestSQLiteRecordAndGetRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j, _ := newTestSQLite(t)

	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	run := sampleRun("01HRUN1", created)
	values := []sim.ValuePoint{{Time: 100, Value: 995}, {Time: 150, Value: 1200}, {Time: 200, Value: 1484.02}}

	require.NoError(t, j.RecordRun(ctx, run, sampleFills(), values))

	got, err := j.GetRun(ctx, "01HRUN1")
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(created))
	assert.True(t, got.Start.Equal(run.Start))
	assert.True(t, got.End.Equal(run.End))

	got.Created, got.Start, got.End = run.Created, run.Start, run.End
	assert.Equal(t, run, got)

	fills, err := j.ListFills(ctx, "01HRUN1")
	require.NoError(t, err)
	assert.Equal(t, sampleFills(), fills)

	gotValues, err := j.ListValues(ctx, "01HRUN1")
	require.NoError(t, err)
	assert.Equal(t, values, gotValues)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()
	j, _ := newTestSQLite(t)

	_, err := j.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteDuplicateRunRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j, _ := newTestSQLite(t)

	run := sampleRun("dup", time.Now().UTC())
	require.NoError(t, j.RecordRun(ctx, run, sampleFills(), nil))
	assert.Error(t, j.RecordRun(ctx, run, sampleFills(), nil))

	fills, err := j.ListFills(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, fills, 2)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j, _ := newTestSQLite(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, j.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour)), nil, nil))
	}

	runs, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "a", runs[2].RunID)

	runs, err = j.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteExportOrg(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j, _ := newTestSQLite(t)

	require.NoError(t, j.RecordRun(ctx, sampleRun("org1", time.Now().UTC()), sampleFills(), nil))

	out, err := j.ExportOrg(ctx, "org1")
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      org1")
	assert.Contains(t, out, "** Fills")
	assert.Contains(t, out, "*** SELL 1970-01-01T00:03:20Z @ 11.000000")

	_, err = j.ExportOrg(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
