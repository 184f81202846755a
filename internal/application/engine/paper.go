package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/predsim/internal/application/exchange"
	"github.com/alejandrodnm/predsim/internal/application/strategy"
	"github.com/alejandrodnm/predsim/internal/domain"
	"github.com/alejandrodnm/predsim/internal/ports"
)

// PaperConfig parametrises a live paper-trading session.
type PaperConfig struct {
	InitialCapital       float64
	RecordEquityInterval time.Duration
	RiskLimits           RiskLimits

	// StatusFunc, when set, is called from the dispatch goroutine on every
	// equity tick with the session heartbeat figures.
	StatusFunc func(equity, cash float64, openPositions, tradeCount int)
}

// Paper runs strategies against live market data with simulated execution.
// Provider callbacks arrive on arbitrary goroutines; they only enqueue into
// the events channel, and a single dispatcher goroutine (the Run loop)
// touches the exchange and portfolio. That keeps the engine lock-free with
// the same serial discipline as the backtest.
type Paper struct {
	cfg       PaperConfig
	core      *core
	providers []ports.DataProvider
	events    chan domain.MarketUpdateEvent
}

func NewPaper(cfg PaperConfig, ex *exchange.Simulated, strategies []strategy.Strategy, providers []ports.DataProvider) *Paper {
	if cfg.RecordEquityInterval <= 0 {
		cfg.RecordEquityInterval = defaultEquityInterval
	}
	return &Paper{
		cfg:       cfg,
		core:      newCore("paper", cfg.InitialCapital, ex, strategies, cfg.RiskLimits),
		providers: providers,
		events:    make(chan domain.MarketUpdateEvent, 256),
	}
}

// Run connects the providers and dispatches updates until the context is
// cancelled, then disconnects, drains, and returns the session results.
func (p *Paper) Run(ctx context.Context) (*Results, error) {
	start := time.Now().UTC()
	slog.Info("paper: starting",
		"initial_capital", p.cfg.InitialCapital,
		"providers", len(p.providers),
		"strategies", len(p.core.strategies),
	)

	connected := p.connect(ctx)
	if connected == 0 {
		slog.Warn("paper: no providers connected, running idle")
	}

	p.core.currentTime = start
	p.core.recordEquity(start)

	ticker := time.NewTicker(p.cfg.RecordEquityInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.shutdown(start), nil
		case ev := <-p.events:
			p.core.handleEvent(ev)
		case now := <-ticker.C:
			p.core.currentTime = now.UTC()
			p.core.recordEquity(now.UTC())
			p.reportStatus()
		}
	}
}

// connect wires each provider's update stream into the dispatch channel.
// A provider that fails to connect is logged and skipped; the session
// keeps running on whatever connected.
func (p *Paper) connect(ctx context.Context) int {
	connected := 0
	for _, provider := range p.providers {
		provider.OnUpdate(func(ev domain.MarketUpdateEvent) {
			select {
			case p.events <- ev:
			case <-ctx.Done():
			}
		})
		if err := provider.Connect(ctx); err != nil {
			slog.Error("paper: provider connect failed",
				"provider", provider.Name(), "error", err)
			continue
		}
		slog.Info("paper: provider connected", "provider", provider.Name())
		connected++
	}
	return connected
}

func (p *Paper) reportStatus() {
	if p.cfg.StatusFunc == nil {
		return
	}
	c := p.core
	p.cfg.StatusFunc(c.pf.Value(c.ex.YesPrices()), c.pf.Cash(), c.pf.OpenPositions(), len(c.pf.Trades()))
}

func (p *Paper) shutdown(start time.Time) *Results {
	slog.Info("paper: shutting down")
	for _, provider := range p.providers {
		if err := provider.Disconnect(); err != nil {
			slog.Warn("paper: provider disconnect failed",
				"provider", provider.Name(), "error", err)
		}
	}

	// Drain whatever the providers pushed before disconnecting.
	for {
		select {
		case ev := <-p.events:
			p.core.handleEvent(ev)
			continue
		default:
		}
		break
	}

	end := time.Now().UTC()
	p.core.currentTime = end
	p.core.recordEquity(end)

	results := p.core.finalize(start, end, periodsPerYear(p.cfg.RecordEquityInterval))
	slog.Info("paper: finished",
		"final_value", results.FinalValue,
		"return_pct", results.TotalReturnPct,
	)
	return results
}
