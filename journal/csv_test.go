package journal

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginsim/sim"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalRecordRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	j, err := NewCSV(dir)
	require.NoError(t, err)

	run := sampleRun("R1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	values := []sim.ValuePoint{{Time: 100, Value: 995}}
	require.NoError(t, j.RecordRun(context.Background(), run, sampleFills(), values))
	require.NoError(t, j.Close())

	runs := readCSV(t, filepath.Join(dir, "runs.csv"))
	require.Len(t, runs, 2)
	assert.Equal(t, runsHeader, runs[0])
	assert.Equal(t, "R1", runs[1][0])
	assert.Equal(t, "2024-03-01T00:00:00Z", runs[1][1])
	assert.Equal(t, "1250.500000", runs[1][8])
	assert.Equal(t, "first note; second note", runs[1][16])

	fills := readCSV(t, filepath.Join(dir, "R1_fills.csv"))
	require.Len(t, fills, 3)
	assert.Equal(t, []string{"100", "buy", "locmin"}, fills[1][:3])
	assert.Equal(t, "sell", fills[2][1])

	vals := readCSV(t, filepath.Join(dir, "R1_values.csv"))
	assert.Equal(t, [][]string{{"time", "value"}, {"100", "995.000000"}}, vals)
}

func TestCSVJournalAppendsWithoutSecondHeader(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	for _, id := range []string{"A", "B"} {
		j, err := NewCSV(dir)
		require.NoError(t, err)
		require.NoError(t, j.RecordRun(ctx, sampleRun(id, time.Now()), nil, nil))
		require.NoError(t, j.Close())
	}

	runs := readCSV(t, filepath.Join(dir, "runs.csv"))
	require.Len(t, runs, 3)
	assert.Equal(t, "A", runs[1][0])
	assert.Equal(t, "B", runs[2][0])
}
