package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginsim/sim"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "HBARUSDC", cfg.Pair)
	assert.Equal(t, 0.1, cfg.Account.FeePct)
	assert.Equal(t, "locmin", cfg.Signals.Generator)
	assert.Equal(t, 400, cfg.Signals.Slope.WindowSize)
	assert.Equal(t, 168*time.Hour, cfg.Signals.Slope.GeneralPause)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing pair", func(c *Config) { c.Pair = "" }, "pair is required"},
		{"zero investment", func(c *Config) { c.Account.Investment = 0 }, "investment must be > 0"},
		{"negative fee", func(c *Config) { c.Account.FeePct = -1 }, "fee must not be negative"},
		{"bad fee funding", func(c *Config) { c.Costs.FeeFunding = "card" }, "unknown fee funding"},
		{"unknown generator", func(c *Config) { c.Signals.Generator = "grid" }, "signals.generator"},
		{"even locmin window", func(c *Config) { c.Signals.LocalMin.Window = 4 }, "signals.locmin"},
		{"slope without spans", func(c *Config) {
			c.Signals.Generator = "slope"
			c.Signals.MicroEMASpan = 0
		}, "micro_ema_span"},
		{"slope bad stop", func(c *Config) {
			c.Signals.Generator = "slope"
			c.Signals.Slope.HardStopLimit = 1
		}, "signals.slope"},
		{"hysteresis confirm", func(c *Config) {
			c.Hysteresis.Enabled = true
			c.Hysteresis.Confirm = 0
		}, "hysteresis"},
		{"bad date", func(c *Config) { c.Data.From = "01/02/2024" }, "data.from"},
		{"reversed dates", func(c *Config) {
			c.Data.From = "2024-02-01"
			c.Data.To = "2024-01-01"
		}, "before data.from"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path"},
		{"csv without dir", func(c *Config) { c.Journal.Type = "csv" }, "journal dir"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "mongo" }, "journal.type"},
		{"backoff", func(c *Config) { c.Stream.MaxBackoff = 0 }, "backoff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, sim.ErrConfiguration)
		})
	}
}

func TestSimConfigConvertsPercent(t *testing.T) {
	cfg := Default()
	cfg.Account.SlippagePct = 0.05

	sc, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, sc.Investment)
	assert.Equal(t, 4.0, sc.Margin)
	assert.InDelta(t, 0.05, sc.AnnualInterestRate, 1e-12)
	assert.InDelta(t, 0.001, sc.FeePct, 1e-12)
	assert.InDelta(t, 0.0005, sc.SlippagePct, 1e-12)

	cfg.Costs.FeeFunding = "external"
	assert.Equal(t, sim.Options{Fees: true, Slippage: true, Interest: true, FeeFunding: sim.External}, cfg.SimOptions())
}

func TestStrategyParams(t *testing.T) {
	cfg := Default()
	p := cfg.StrategyParams()
	assert.Equal(t, cfg.Signals.LocalMin, p.LocalMin)
	assert.Equal(t, cfg.Signals.Slope, p.SlopeTrend)
	assert.Equal(t, 5, p.EMASpan)
	assert.Equal(t, 2, p.MicroEMASpan)
	assert.Equal(t, 3, cfg.HysteresisParams().FirstConfirm)
}

func TestDataRange(t *testing.T) {
	from, to, err := DataConfig{From: "2024-01-01", To: "2024-01-31"}.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), to)

	from, to, err = DataConfig{}.Range()
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Pair = "BTCUSDC"
			cfg.Signals.Generator = "slope"
			cfg.Signals.Slope.MicroWindow = 10 * time.Minute
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "runs.db"}

			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apikey.json")
	data := `{"pair": "ETHUSDC", "account": {"investment": 2500, "margin_annual_interest_percentage": 7.5}, ` +
		`"signals": {"locmin": {"window": 5, "stop_loss_pct": 0.5, "cooldown": "90s"}}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDC", cfg.Pair)
	assert.Equal(t, 2500.0, cfg.Account.Investment)
	assert.Equal(t, 7.5, cfg.Account.AnnualInterestPct)
	assert.Equal(t, 4.0, cfg.Account.Margin)
	assert.Equal(t, 5, cfg.Signals.LocalMin.Window)
	assert.Equal(t, 90*time.Second, cfg.Signals.LocalMin.Cooldown)
	assert.Equal(t, "portfolio.txt", cfg.Output.Portfolio)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pair: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("account:\n  investment: -5\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestOutputPath(t *testing.T) {
	o := OutputConfig{Dir: "out"}
	assert.Equal(t, filepath.Join("out", "costs.txt"), o.Path("costs.txt"))
	assert.Empty(t, o.Path(""))
}
