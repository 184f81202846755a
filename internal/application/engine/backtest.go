package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alejandrodnm/predsim/internal/application/exchange"
	"github.com/alejandrodnm/predsim/internal/application/strategy"
	"github.com/alejandrodnm/predsim/internal/ports"
)

const defaultEquityInterval = time.Hour

// BacktestConfig parametrises one backtest run.
type BacktestConfig struct {
	InitialCapital       float64
	RecordEquityInterval time.Duration
	RiskLimits           RiskLimits
}

// Backtest drives strategies over a finite historical event stream.
// Everything runs on the caller's goroutine in simulated time; latency is
// recorded for statistics but never slept.
type Backtest struct {
	cfg    BacktestConfig
	core   *core
	source ports.EventSource
}

func NewBacktest(cfg BacktestConfig, ex *exchange.Simulated, strategies []strategy.Strategy, source ports.EventSource) *Backtest {
	if cfg.RecordEquityInterval <= 0 {
		cfg.RecordEquityInterval = defaultEquityInterval
	}
	return &Backtest{
		cfg:    cfg,
		core:   newCore("backtest", cfg.InitialCapital, ex, strategies, cfg.RiskLimits),
		source: source,
	}
}

// Run consumes the source until exhaustion and returns the results
// artefact. Cancelling the context stops the run between events; the
// partial results computed so far are returned alongside the error.
func (b *Backtest) Run(ctx context.Context) (*Results, error) {
	slog.Info("backtest: starting",
		"initial_capital", b.cfg.InitialCapital,
		"strategies", len(b.core.strategies),
	)

	var (
		start      time.Time
		lastEquity time.Time
		processed  int
	)

	for {
		if err := ctx.Err(); err != nil {
			slog.Warn("backtest: cancelled", "events_processed", processed)
			return b.finish(start), fmt.Errorf("engine.Backtest.Run: %w", err)
		}

		ev, err := b.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return b.finish(start), fmt.Errorf("engine.Backtest.Run: next event: %w", err)
		}

		at := ev.Time()
		if start.IsZero() {
			start = at
			lastEquity = at
			b.core.recordEquity(at)
		}

		b.core.handleEvent(ev)
		processed++

		if at.Sub(lastEquity) >= b.cfg.RecordEquityInterval {
			b.core.recordEquity(at)
			lastEquity = at
		}
	}

	results := b.finish(start)
	slog.Info("backtest: finished",
		"events_processed", processed,
		"final_value", results.FinalValue,
		"return_pct", results.TotalReturnPct,
	)
	return results, nil
}

func (b *Backtest) finish(start time.Time) *Results {
	end := b.core.currentTime
	if !end.IsZero() {
		b.core.recordEquity(end)
	}
	return b.core.finalize(start, end, periodsPerYear(b.cfg.RecordEquityInterval))
}
