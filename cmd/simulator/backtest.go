package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/predsim/config"
	"github.com/alejandrodnm/predsim/internal/adapters/notify"
	"github.com/alejandrodnm/predsim/internal/adapters/storage"
	"github.com/alejandrodnm/predsim/internal/application/engine"
	"github.com/alejandrodnm/predsim/internal/application/feed"
	"github.com/alejandrodnm/predsim/internal/ports"
)

// runBacktest drives a historical replay (backtest mode) or a synthetic
// random walk (sandbox mode) and prints the results.
func runBacktest(ctx context.Context, cfg *config.Config, output string) {
	source, cleanup, err := buildSource(cfg)
	if err != nil {
		slog.Error("failed to build event source", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	strategies, err := cfg.BuildStrategies()
	if err != nil {
		slog.Error("failed to build strategies", "err", err)
		os.Exit(1)
	}

	bt := engine.NewBacktest(engine.BacktestConfig{
		InitialCapital:       cfg.Backtest.InitialCapital,
		RecordEquityInterval: cfg.BacktestEquityInterval(),
		RiskLimits:           cfg.RiskLimits,
	}, cfg.BuildExchange(), strategies, source)

	results, err := bt.Run(ctx)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	notify.NewConsole().PrintResults(results)

	if output != "" {
		if err := results.WriteJSON(output); err != nil {
			slog.Error("failed to write results", "err", err, "path", output)
			os.Exit(1)
		}
		slog.Info("results written", "path", output)
	}
}

// buildSource returns the replay source for backtest mode, or a mock
// random-walk source for sandbox mode.
func buildSource(cfg *config.Config) (ports.EventSource, func(), error) {
	if cfg.Mode == config.ModeSandbox {
		mockCfg := feed.DefaultMockConfig()
		mockCfg.Step = time.Duration(cfg.Backtest.TimeStepMinutes) * time.Minute
		if start, end, err := cfg.BacktestWindow(); err == nil {
			mockCfg.Start = start
			mockCfg.End = end
		}
		return feed.NewMockSource(mockCfg), func() {}, nil
	}

	dsn := cfg.Storage.DSN
	if cfg.Backtest.DataPath != "" {
		dsn = cfg.Backtest.DataPath
	}
	store, err := storage.NewSQLiteStore(dsn)
	if err != nil {
		return nil, nil, err
	}

	start, end, err := cfg.BacktestWindow()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	source := feed.NewReplaySource(store, feed.ReplayConfig{
		Start:     start,
		End:       end,
		Platforms: cfg.Backtest.Platforms,
	})
	return source, func() { store.Close() }, nil
}
