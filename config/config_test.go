package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predsim/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleYAML = `
mode: backtest

backtest:
  start_date: "2025-01-01"
  end_date: "2025-02-01"
  initial_capital: 25000
  platforms: [polymarket, kalshi]
  record_equity_interval: 30

exchange:
  fill_model:
    type: realistic
    prob_fill_on_limit: 0.8
    prob_slippage: 0.2
    max_slippage_bps: 40
    random_seed: 99
  latency_model:
    mean_ms: 100
    std_ms: 30
    min_ms: 10
    max_ms: 400

risk_limits:
  max_position_size: 500
  max_open_positions: 10
  stop_loss_pct: 0.3

strategies:
  enabled: [momentum, arbitrage]
  momentum:
    rsi_period: 10
    momentum_period: 8
    entry_threshold: 0.03
    min_trend_strength: 0.5
    overbought: 75
    oversold: 25
    order_size: 50

storage:
  dsn: "test.db"

log:
  level: debug
  format: json
`

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, config.ModeBacktest, cfg.Mode)
	assert.Equal(t, 25000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 30*time.Minute, cfg.BacktestEquityInterval())

	start, end, err := cfg.BacktestWindow()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), end)

	assert.Equal(t, "realistic", cfg.Exchange.FillModel.Type)
	assert.Equal(t, 0.8, cfg.Exchange.FillModel.ProbFillOnLimit)
	assert.Equal(t, int64(99), cfg.Exchange.FillModel.Seed)
	assert.Equal(t, 100.0, cfg.Exchange.LatencyModel.MeanMs)

	assert.Equal(t, 500.0, cfg.RiskLimits.MaxPositionSize)
	assert.Equal(t, 10, cfg.RiskLimits.MaxOpenPositions)

	assert.Equal(t, []string{"momentum", "arbitrage"}, cfg.Strategies.Enabled)
	assert.Equal(t, 10, cfg.Strategies.Momentum.RSIPeriod)
	assert.Equal(t, "test.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultsFillTheGaps(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
mode: sandbox
`))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 5, cfg.Backtest.TimeStepMinutes)
	assert.Equal(t, time.Hour, cfg.BacktestEquityInterval())
	assert.Equal(t, 5*time.Minute, cfg.PaperEquityInterval())
	assert.Equal(t, 30*time.Second, cfg.DataRefresh())
	assert.Equal(t, "basic", cfg.Exchange.FillModel.Type)
	assert.Equal(t, 0.7, cfg.Exchange.FillModel.ProbFillOnLimit)
	assert.Equal(t, []string{"mean_reversion"}, cfg.Strategies.Enabled)
	assert.Equal(t, 20, cfg.Strategies.MeanReversion.Lookback)
	assert.Equal(t, "predsim.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
mode: sandbox
backtest:
  initial_capitol: 10000
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial_capitol")
}

func TestLoad_InvalidMode(t *testing.T) {
	_, err := config.Load(writeConfig(t, `mode: live`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestLoad_BacktestRequiresDateWindow(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
mode: backtest
backtest:
  start_date: "2025-02-01"
  end_date: "2025-01-01"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not after")
}

func TestLoad_InvalidPlatform(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
mode: sandbox
paper_trading:
  platforms: [robinhood]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestLoad_InvalidFillModel(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
mode: sandbox
exchange:
  fill_model:
    type: magic
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fill model")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PREDSIM_MODE", "paper")
	t.Setenv("PREDSIM_DB", "override.db")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(writeConfig(t, `
mode: sandbox
storage:
  dsn: "file.db"
`))
	require.NoError(t, err)

	assert.Equal(t, config.ModePaper, cfg.Mode)
	assert.Equal(t, "override.db", cfg.Storage.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestBuildStrategies(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
mode: sandbox
strategies:
  enabled: [market_maker, spike_detector]
`))
	require.NoError(t, err)

	strategies, err := cfg.BuildStrategies()
	require.NoError(t, err)
	require.Len(t, strategies, 2)
	assert.Equal(t, "market_maker", strategies[0].Name())
	assert.Equal(t, "spike_detector", strategies[1].Name())
}

func TestBuildStrategies_UnknownName(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
mode: sandbox
strategies:
  enabled: [hodl]
`))
	require.NoError(t, err)

	_, err = cfg.BuildStrategies()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "hodl"`)
}

func TestBuildExchange(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
mode: sandbox
exchange:
  fill_model:
    type: realistic
  fee_model:
    custom_fees:
      polymarket:
        taker_notional_rate: 0.01
`))
	require.NoError(t, err)

	assert.NotNil(t, cfg.BuildExchange())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
