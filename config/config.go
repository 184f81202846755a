package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/predsim/internal/adapters/marketdata"
	"github.com/alejandrodnm/predsim/internal/application/engine"
	"github.com/alejandrodnm/predsim/internal/application/exchange"
	"github.com/alejandrodnm/predsim/internal/application/strategy"
	"github.com/alejandrodnm/predsim/internal/domain"
)

// Run modes.
const (
	ModeBacktest = "backtest"
	ModePaper    = "paper"
	ModeSandbox  = "sandbox" // backtest against synthetic data
)

// Config is the full simulator configuration.
type Config struct {
	Mode       string            `yaml:"mode"`
	Backtest   BacktestConfig    `yaml:"backtest"`
	Paper      PaperConfig       `yaml:"paper_trading"`
	Exchange   ExchangeConfig    `yaml:"exchange"`
	RiskLimits engine.RiskLimits `yaml:"risk_limits"`
	Strategies StrategiesConfig  `yaml:"strategies"`
	Storage    StorageConfig     `yaml:"storage"`
	MarketData MarketDataConfig  `yaml:"marketdata"`
	Log        LogConfig         `yaml:"log"`
}

// BacktestConfig bounds the historical run.
type BacktestConfig struct {
	StartDate           string            `yaml:"start_date"` // YYYY-MM-DD
	EndDate             string            `yaml:"end_date"`
	InitialCapital      float64           `yaml:"initial_capital"`
	Platforms           []domain.Platform `yaml:"platforms"`
	TimeStepMinutes     int               `yaml:"time_step_minutes"` // sandbox walk resolution
	RecordEquityMinutes int               `yaml:"record_equity_interval"`
	DataPath            string            `yaml:"data_path"`
}

// PaperConfig shapes the live session.
type PaperConfig struct {
	InitialCapital      float64           `yaml:"initial_capital"`
	Platforms           []domain.Platform `yaml:"platforms"`
	RealTimeData        bool              `yaml:"real_time_data"` // websocket vs polling
	DataRefreshSeconds  int               `yaml:"data_refresh_seconds"`
	RecordEquityMinutes int               `yaml:"record_equity_interval"`
}

// ExchangeConfig groups the simulated execution models.
type ExchangeConfig struct {
	FillModel    FillModelConfig        `yaml:"fill_model"`
	LatencyModel exchange.LatencyConfig `yaml:"latency_model"`
	FeeModel     FeeModelConfig         `yaml:"fee_model"`
}

// FillModelConfig selects and tunes the fill model.
type FillModelConfig struct {
	Type                string `yaml:"type"` // basic | realistic
	exchange.FillConfig `yaml:",inline"`
}

// FeeModelConfig selects platform fee schedules or overrides them.
type FeeModelConfig struct {
	UsePlatformFees bool                                     `yaml:"use_platform_fees"`
	CustomFees      map[domain.Platform]exchange.FeeSchedule `yaml:"custom_fees"`
}

// StrategiesConfig enables strategies and carries their parameters.
type StrategiesConfig struct {
	Enabled       []string                       `yaml:"enabled"`
	MeanReversion strategy.MeanReversionConfig   `yaml:"mean_reversion"`
	Momentum      strategy.MomentumConfig        `yaml:"momentum"`
	Spike         strategy.SpikeConfig           `yaml:"spike_detector"`
	Arbitrage     strategy.ArbitrageConfig       `yaml:"arbitrage"`
	MarketMaker   strategy.MarketMakerConfig     `yaml:"market_maker"`
}

// StorageConfig points at the SQLite database.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// MarketDataConfig configures the external data service adapters.
type MarketDataConfig struct {
	REST   marketdata.ClientConfig `yaml:"rest"`
	Stream marketdata.StreamConfig `yaml:"stream"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Unknown YAML keys
// are rejected so a typoed option fails loudly instead of silently using a
// default. Env values override YAML for the keys that map to one.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// BacktestWindow parses the configured date range.
func (c *Config) BacktestWindow() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.Backtest.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("config.BacktestWindow: start_date %q: %w", c.Backtest.StartDate, err)
	}
	end, err = time.Parse("2006-01-02", c.Backtest.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("config.BacktestWindow: end_date %q: %w", c.Backtest.EndDate, err)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("config.BacktestWindow: end_date %q not after start_date %q",
			c.Backtest.EndDate, c.Backtest.StartDate)
	}
	return start, end, nil
}

// BacktestEquityInterval returns the backtest equity sampling interval.
func (c *Config) BacktestEquityInterval() time.Duration {
	return time.Duration(c.Backtest.RecordEquityMinutes) * time.Minute
}

// PaperEquityInterval returns the paper equity sampling interval.
func (c *Config) PaperEquityInterval() time.Duration {
	return time.Duration(c.Paper.RecordEquityMinutes) * time.Minute
}

// DataRefresh returns the polling interval for non-streaming paper data.
func (c *Config) DataRefresh() time.Duration {
	return time.Duration(c.Paper.DataRefreshSeconds) * time.Second
}

// BuildExchange constructs the simulated exchange from the config.
func (c *Config) BuildExchange() *exchange.Simulated {
	var fill exchange.FillModel
	switch c.Exchange.FillModel.Type {
	case "realistic":
		fill = exchange.NewBookFillModel(c.Exchange.FillModel.FillConfig)
	default:
		fill = exchange.NewBasicFillModel(c.Exchange.FillModel.FillConfig)
	}

	var fees exchange.FeeModel
	if len(c.Exchange.FeeModel.CustomFees) > 0 {
		fees = exchange.NewCustomFeeModel(c.Exchange.FeeModel.CustomFees)
	} else {
		fees = exchange.NewPlatformFeeModel()
	}

	return exchange.New(fill, exchange.NewLatencyModel(c.Exchange.LatencyModel), fees)
}

// BuildStrategies instantiates the enabled strategies in config order.
func (c *Config) BuildStrategies() ([]strategy.Strategy, error) {
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewMeanReversion(c.Strategies.MeanReversion))
	registry.Register(strategy.NewMomentum(c.Strategies.Momentum))
	registry.Register(strategy.NewSpikeDetector(c.Strategies.Spike))
	registry.Register(strategy.NewArbitrage(c.Strategies.Arbitrage))
	registry.Register(strategy.NewMarketMaker(c.Strategies.MarketMaker))

	strategies := make([]strategy.Strategy, 0, len(c.Strategies.Enabled))
	for _, name := range c.Strategies.Enabled {
		s, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("config.BuildStrategies: unknown strategy %q", name)
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PREDSIM_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("PREDSIM_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("MARKETDATA_URL"); v != "" {
		cfg.MarketData.REST.BaseURL = v
	}
	if v := os.Getenv("MARKETDATA_WS_URL"); v != "" {
		cfg.MarketData.Stream.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeBacktest
	}
	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.TimeStepMinutes <= 0 {
		cfg.Backtest.TimeStepMinutes = 5
	}
	if cfg.Backtest.RecordEquityMinutes <= 0 {
		cfg.Backtest.RecordEquityMinutes = 60
	}
	if cfg.Paper.InitialCapital <= 0 {
		cfg.Paper.InitialCapital = 10000
	}
	if cfg.Paper.DataRefreshSeconds <= 0 {
		cfg.Paper.DataRefreshSeconds = 30
	}
	if cfg.Paper.RecordEquityMinutes <= 0 {
		cfg.Paper.RecordEquityMinutes = 5
	}

	if cfg.Exchange.FillModel.Type == "" {
		cfg.Exchange.FillModel.Type = "basic"
	}
	if cfg.Exchange.FillModel.ProbFillOnLimit == 0 &&
		cfg.Exchange.FillModel.ProbSlippage == 0 &&
		cfg.Exchange.FillModel.MaxSlippageBps == 0 {
		seed := cfg.Exchange.FillModel.Seed
		cfg.Exchange.FillModel.FillConfig = exchange.DefaultFillConfig()
		cfg.Exchange.FillModel.Seed = seed
	}
	if cfg.Exchange.LatencyModel.MeanMs == 0 && cfg.Exchange.LatencyModel.MaxMs == 0 {
		seed := cfg.Exchange.LatencyModel.Seed
		cfg.Exchange.LatencyModel = exchange.DefaultLatencyConfig()
		cfg.Exchange.LatencyModel.Seed = seed
	}

	if len(cfg.Strategies.Enabled) == 0 {
		cfg.Strategies.Enabled = []string{"mean_reversion"}
	}
	zeroMR := strategy.MeanReversionConfig{}
	if cfg.Strategies.MeanReversion == zeroMR {
		cfg.Strategies.MeanReversion = strategy.DefaultMeanReversionConfig()
	}
	zeroMom := strategy.MomentumConfig{}
	if cfg.Strategies.Momentum == zeroMom {
		cfg.Strategies.Momentum = strategy.DefaultMomentumConfig()
	}
	zeroSpike := strategy.SpikeConfig{}
	if cfg.Strategies.Spike == zeroSpike {
		cfg.Strategies.Spike = strategy.DefaultSpikeConfig()
	}
	zeroArb := strategy.ArbitrageConfig{}
	if cfg.Strategies.Arbitrage == zeroArb {
		cfg.Strategies.Arbitrage = strategy.DefaultArbitrageConfig()
	}
	zeroMM := strategy.MarketMakerConfig{}
	if cfg.Strategies.MarketMaker == zeroMM {
		cfg.Strategies.MarketMaker = strategy.DefaultMarketMakerConfig()
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "predsim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeBacktest, ModePaper, ModeSandbox:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if c.Mode == ModeBacktest {
		if _, _, err := c.BacktestWindow(); err != nil {
			return err
		}
	}

	for _, platforms := range [][]domain.Platform{c.Backtest.Platforms, c.Paper.Platforms} {
		for _, p := range platforms {
			if !p.Valid() {
				return fmt.Errorf("unknown platform %q", p)
			}
		}
	}

	switch c.Exchange.FillModel.Type {
	case "basic", "realistic":
	default:
		return fmt.Errorf("unknown fill model %q", c.Exchange.FillModel.Type)
	}
	return nil
}
