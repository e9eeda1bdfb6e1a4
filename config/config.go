package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/marginsim/report"
	"github.com/rustyeddy/marginsim/sim"
	"github.com/rustyeddy/marginsim/strategies"
)

// DateLayout is the format of data.from and data.to.
const DateLayout = "2006-01-02"

// Config represents a complete run configuration
type Config struct {
	Pair       string           `json:"pair" yaml:"pair"`
	Account    AccountConfig    `json:"account" yaml:"account"`
	Costs      CostsConfig      `json:"costs" yaml:"costs"`
	Signals    SignalsConfig    `json:"signals" yaml:"signals"`
	Hysteresis HysteresisConfig `json:"hysteresis" yaml:"hysteresis"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Stream     StreamConfig     `json:"stream" yaml:"stream"`
}

// AccountConfig holds the account terms. Percentages are in percent:
// 5 means 5%.
type AccountConfig struct {
	Investment        float64 `json:"investment" yaml:"investment"`
	Margin            float64 `json:"margin" yaml:"margin"`
	AnnualInterestPct float64 `json:"margin_annual_interest_percentage" yaml:"margin_annual_interest_percentage"`
	FeePct            float64 `json:"trade_fee_percentage" yaml:"trade_fee_percentage"`
	SlippagePct       float64 `json:"slippage_percentage" yaml:"slippage_percentage"`
}

// CostsConfig switches the optional costs of the simulator.
type CostsConfig struct {
	Fees     bool `json:"fees" yaml:"fees"`
	Slippage bool `json:"slippage" yaml:"slippage"`
	Interest bool `json:"interest" yaml:"interest"`
	// FeeFunding is "portfolio" or "external"
	FeeFunding string `json:"fee_funding" yaml:"fee_funding"`
}

// SignalsConfig selects and tunes the trade signal generator.
type SignalsConfig struct {
	Generator    string                      `json:"generator" yaml:"generator"`
	EMASpan      int                         `json:"ema_span" yaml:"ema_span"`
	MicroEMASpan int                         `json:"micro_ema_span" yaml:"micro_ema_span"`
	LocalMin     strategies.LocalMinConfig   `json:"locmin" yaml:"locmin"`
	Slope        strategies.SlopeTrendConfig `json:"slope" yaml:"slope"`
}

// HysteresisConfig enables the direction post-filter on generated trades.
type HysteresisConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	FirstConfirm int  `json:"first_confirm" yaml:"first_confirm"`
	Confirm      int  `json:"confirm" yaml:"confirm"`
}

// DataConfig names the input files.
type DataConfig struct {
	// Prices is a "ts,price" file.
	Prices string `json:"prices" yaml:"prices"`
	// Trades is a "ts,action,reason" file used by the simulate command.
	Trades string `json:"trades,omitempty" yaml:"trades,omitempty"`
	// Raw exchange dump filtered into Prices by the asset command.
	Raw  string `json:"raw,omitempty" yaml:"raw,omitempty"`
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

// OutputConfig names the files written by a run, relative to Dir.
type OutputConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	Trades    string `json:"trades" yaml:"trades"`
	Portfolio string `json:"portfolio" yaml:"portfolio"`
	Untouched string `json:"untouched" yaml:"untouched"`
	Margin    string `json:"margin" yaml:"margin"`
	Costs     string `json:"costs" yaml:"costs"`
	Unit      string `json:"unit" yaml:"unit"`
}

// Path joins name onto Dir. Empty names yield "".
func (o OutputConfig) Path(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(o.Dir, name)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "", "csv" or "sqlite"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// StreamConfig configures the live kline feed.
type StreamConfig struct {
	URL          string        `json:"url" yaml:"url"`
	MinBackoff   time.Duration `json:"min_backoff" yaml:"min_backoff"`
	MaxBackoff   time.Duration `json:"max_backoff" yaml:"max_backoff"`
	ReadDeadline time.Duration `json:"read_deadline" yaml:"read_deadline"`
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	data, err := c.Marshal(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal encodes c as JSON when path ends in .json and as YAML otherwise.
func (c *Config) Marshal(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Pair == "" {
		return fmt.Errorf("pair is required: %w", sim.ErrConfiguration)
	}
	if _, err := c.SimConfig(); err != nil {
		return err
	}
	if _, err := sim.ParseFeeFunding(c.Costs.FeeFunding); err != nil {
		return err
	}

	if !strategies.Known(c.Signals.Generator) {
		return fmt.Errorf("signals.generator %q (supported: %s): %w",
			c.Signals.Generator, strings.Join(strategies.Names(), ", "), sim.ErrConfiguration)
	}
	switch strategies.Canonical(c.Signals.Generator) {
	case "locmin":
		if err := c.Signals.LocalMin.Validate(); err != nil {
			return fmt.Errorf("signals.locmin: %v: %w", err, sim.ErrConfiguration)
		}
	case "slope":
		if err := c.Signals.Slope.Validate(); err != nil {
			return fmt.Errorf("signals.slope: %v: %w", err, sim.ErrConfiguration)
		}
		if c.Signals.EMASpan <= 0 || c.Signals.MicroEMASpan <= 0 {
			return fmt.Errorf("signals.ema_span and micro_ema_span must be positive: %w", sim.ErrConfiguration)
		}
	}

	if c.Hysteresis.Enabled {
		if c.Signals.EMASpan <= 0 {
			return fmt.Errorf("hysteresis needs signals.ema_span: %w", sim.ErrConfiguration)
		}
		if err := c.HysteresisParams().Validate(); err != nil {
			return fmt.Errorf("%v: %w", err, sim.ErrConfiguration)
		}
	}

	if _, _, err := c.Data.Range(); err != nil {
		return fmt.Errorf("%v: %w", err, sim.ErrConfiguration)
	}

	switch c.Journal.Type {
	case "":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type: %w", sim.ErrConfiguration)
		}
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type: %w", sim.ErrConfiguration)
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or empty: %w", sim.ErrConfiguration)
	}

	if c.Stream.MinBackoff < 0 || c.Stream.MaxBackoff < c.Stream.MinBackoff {
		return fmt.Errorf("stream backoff must satisfy 0 <= min <= max: %w", sim.ErrConfiguration)
	}
	return nil
}

// SimConfig converts the account terms to simulator fractions.
func (c *Config) SimConfig() (sim.Config, error) {
	sc := sim.Config{
		Investment:         c.Account.Investment,
		Margin:             c.Account.Margin,
		AnnualInterestRate: c.Account.AnnualInterestPct / 100,
		FeePct:             c.Account.FeePct / 100,
		SlippagePct:        c.Account.SlippagePct / 100,
	}
	if err := sc.Validate(); err != nil {
		return sim.Config{}, fmt.Errorf("account: %w", err)
	}
	return sc, nil
}

// SimOptions returns the cost switches. FeeFunding is assumed validated.
func (c *Config) SimOptions() sim.Options {
	ff, _ := sim.ParseFeeFunding(c.Costs.FeeFunding)
	return sim.Options{
		Fees:       c.Costs.Fees,
		Slippage:   c.Costs.Slippage,
		Interest:   c.Costs.Interest,
		FeeFunding: ff,
	}
}

func (c *Config) StrategyParams() strategies.Params {
	return strategies.Params{
		LocalMin:     c.Signals.LocalMin,
		SlopeTrend:   c.Signals.Slope,
		EMASpan:      c.Signals.EMASpan,
		MicroEMASpan: c.Signals.MicroEMASpan,
	}
}

func (c *Config) HysteresisParams() strategies.HysteresisConfig {
	return strategies.HysteresisConfig{
		FirstConfirm: c.Hysteresis.FirstConfirm,
		Confirm:      c.Hysteresis.Confirm,
	}
}

// Range parses From and To as UTC dates. Zero times mean unbounded.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = time.Parse(DateLayout, d.From); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = time.Parse(DateLayout, d.To); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("data.to %s is before data.from %s", d.To, d.From)
	}
	return from, to, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Pair: "HBARUSDC",
		Account: AccountConfig{
			Investment:        1000,
			Margin:            4,
			AnnualInterestPct: 5,
			FeePct:            0.1,
			SlippagePct:       0,
		},
		Costs: CostsConfig{
			Fees:       true,
			Slippage:   true,
			Interest:   true,
			FeeFunding: "portfolio",
		},
		Signals: SignalsConfig{
			Generator:    "locmin",
			EMASpan:      5,
			MicroEMASpan: 2,
			LocalMin: strategies.LocalMinConfig{
				Window:      3,
				StopLossPct: 1,
				Cooldown:    time.Minute,
			},
			Slope: strategies.SlopeTrendDefaults(),
		},
		Hysteresis: HysteresisConfig{
			FirstConfirm: 3,
			Confirm:      1,
		},
		Data: DataConfig{
			Prices: "asset.txt",
		},
		Output: OutputConfig{
			Dir:       "output",
			Trades:    "trades.txt",
			Portfolio: "portfolio.txt",
			Untouched: "untouched_portfolio.txt",
			Margin:    "margin.txt",
			Costs:     "costs.txt",
			Unit:      report.DefaultUnit,
		},
		Stream: StreamConfig{
			URL:          "wss://stream.binance.com:9443/ws",
			MinBackoff:   time.Second,
			MaxBackoff:   time.Minute,
			ReadDeadline: 2 * time.Minute,
		},
	}
}
