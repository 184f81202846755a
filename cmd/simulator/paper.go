package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/predsim/config"
	"github.com/alejandrodnm/predsim/internal/adapters/marketdata"
	"github.com/alejandrodnm/predsim/internal/adapters/notify"
	"github.com/alejandrodnm/predsim/internal/application/engine"
	"github.com/alejandrodnm/predsim/internal/ports"
)

// runPaper runs a live paper-trading session until Ctrl+C or a STOP file
// appears in the working directory.
func runPaper(ctx context.Context, cfg *config.Config, output string) {
	strategies, err := cfg.BuildStrategies()
	if err != nil {
		slog.Error("failed to build strategies", "err", err)
		os.Exit(1)
	}

	var providers []ports.DataProvider
	if cfg.Paper.RealTimeData && cfg.MarketData.Stream.URL != "" {
		streamCfg := cfg.MarketData.Stream
		if len(streamCfg.Platforms) == 0 {
			streamCfg.Platforms = cfg.Paper.Platforms
		}
		providers = append(providers, marketdata.NewStream(streamCfg))
	} else {
		client := marketdata.NewClient(cfg.MarketData.REST)
		providers = append(providers, marketdata.NewPoller(client, cfg.Paper.Platforms, cfg.DataRefresh()))
	}

	console := notify.NewConsole()
	paper := engine.NewPaper(engine.PaperConfig{
		InitialCapital:       cfg.Paper.InitialCapital,
		RecordEquityInterval: cfg.PaperEquityInterval(),
		RiskLimits:           cfg.RiskLimits,
		StatusFunc:           console.PrintPaperStatus,
	}, cfg.BuildExchange(), strategies, providers)

	// A STOP file in the working directory shuts the session down, for
	// deployments where sending SIGINT is inconvenient.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchStopFile(runCtx, cancel)

	slog.Info("paper trading started — press Ctrl+C or create STOP file to exit")

	results, err := paper.Run(runCtx)
	if err != nil {
		slog.Error("paper session failed", "err", err)
		os.Exit(1)
	}

	console.PrintResults(results)

	if output != "" {
		if err := results.WriteJSON(output); err != nil {
			slog.Error("failed to write results", "err", err, "path", output)
			os.Exit(1)
		}
		slog.Info("results written", "path", output)
	}
}

func watchStopFile(ctx context.Context, cancel context.CancelFunc) {
	const stopFile = "STOP"
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP file detected — shutting down paper trading")
				os.Remove(stopFile)
				cancel()
				return
			}
		}
	}
}
