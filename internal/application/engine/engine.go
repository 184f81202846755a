package engine

// Shared dispatch machinery for the backtest and paper engines. The core
// owns the portfolio and exchange exclusively; every event, order and
// equity sample flows through one goroutine, so none of this is locked.

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/predsim/internal/application/exchange"
	"github.com/alejandrodnm/predsim/internal/application/portfolio"
	"github.com/alejandrodnm/predsim/internal/application/strategy"
	"github.com/alejandrodnm/predsim/internal/domain"
)

const stopLossStrategy = "risk_stop"

type core struct {
	ex         *exchange.Simulated
	pf         *portfolio.Portfolio
	strategies []strategy.Strategy
	gate       *riskGate
	results    *Results

	currentTime time.Time
	sumSlippage float64
	sumLatency  float64
}

func newCore(mode string, initialCapital float64, ex *exchange.Simulated, strategies []strategy.Strategy, limits RiskLimits) *core {
	return &core{
		ex:         ex,
		pf:         portfolio.New(initialCapital),
		strategies: strategies,
		gate:       newRiskGate(limits),
		results:    newResults(mode, initialCapital),
	}
}

// handleEvent dispatches one simulation event. The switch is exhaustive
// over the closed event set; unknown kinds only log.
func (c *core) handleEvent(ev domain.SimulationEvent) {
	c.currentTime = ev.Time()

	switch e := ev.(type) {
	case domain.MarketUpdateEvent:
		c.handleMarketUpdate(e)
	case domain.OrderBookUpdateEvent:
		c.handleBookUpdate(e)
	case domain.ResolutionEvent:
		c.handleResolution(e)
	case domain.NewsEvent:
		// No built-in strategy consumes news yet.
		slog.Debug("engine: news event", "headline", e.Headline)
	default:
		slog.Warn("engine: unknown event kind", "kind", ev.Kind())
	}
}

func (c *core) handleMarketUpdate(ev domain.MarketUpdateEvent) {
	c.ex.UpdateMarket(ev.Market)

	for _, s := range c.strategies {
		signals := c.collectSignals(s.Name(), func() []domain.StrategySignal {
			return s.OnMarketUpdate(ev, c.pf)
		})
		c.submitSignals(signals, s.Name())
	}

	c.checkStopLoss(ev.Market)
}

func (c *core) handleBookUpdate(ev domain.OrderBookUpdateEvent) {
	c.ex.UpdateOrderBook(ev.Book)

	for _, s := range c.strategies {
		signals := c.collectSignals(s.Name(), func() []domain.StrategySignal {
			return s.OnOrderBookUpdate(ev, c.pf)
		})
		c.submitSignals(signals, s.Name())
	}
}

func (c *core) handleResolution(ev domain.ResolutionEvent) {
	res := ev.Resolution
	pnl := c.pf.ResolvePosition(res)
	slog.Info("engine: market resolved",
		"market", domain.TruncateQuestion(res.Question, res.MarketID, 40),
		"outcome", res.Outcome,
		"pnl", pnl,
	)

	for _, s := range c.strategies {
		name := s.Name()
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("engine: strategy panicked in OnResolution",
						"strategy", name, "panic", r)
				}
			}()
			s.OnResolution(ev)
		}()
	}
}

// collectSignals invokes a strategy callback, containing any panic so a
// broken strategy never takes the engine down.
func (c *core) collectSignals(name string, fn func() []domain.StrategySignal) (signals []domain.StrategySignal) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: strategy panicked", "strategy", name, "panic", r)
			signals = nil
		}
	}()
	return fn()
}

// submitSignals converts signals to orders executed at the current event's
// timestamp and routes them through the risk gate and exchange.
func (c *core) submitSignals(signals []domain.StrategySignal, strategyName string) {
	for _, sig := range signals {
		if sig.Strategy == "" {
			sig.Strategy = strategyName
		}
		c.submitOrder(sig.ToOrder(c.currentTime))
	}
}

func (c *core) submitOrder(order domain.Order) {
	if reason := c.gate.allow(order, c.pf, c.pf.Value(c.ex.YesPrices())); reason != "" {
		slog.Warn("engine: order blocked by risk limit",
			"strategy", order.Strategy,
			"market", order.MarketID,
			"limit", reason,
		)
		return
	}

	result := c.ex.SubmitOrder(order)
	c.results.Execution.OrdersSubmitted++
	c.sumLatency += result.LatencyMs

	switch result.Status {
	case domain.FillFilled:
		c.results.Execution.OrdersFilled++
	case domain.FillPartial:
		c.results.Execution.OrdersPartial++
	default:
		c.results.Execution.OrdersRejected++
		return
	}
	c.sumSlippage += result.Slippage

	trade := domain.TradeEvent{
		TradeID:   uuid.New().String(),
		MarketID:  order.MarketID,
		Platform:  order.Platform,
		Timestamp: c.currentTime,
		Side:      order.Side,
		Price:     result.FillPrice,
		Size:      result.FilledSize,
		IsTaker:   order.Type != domain.OrderLimit,
		Fees:      result.Fees,
		Strategy:  order.Strategy,
	}
	if !c.pf.ExecuteTrade(trade) {
		slog.Warn("engine: fill dropped, insufficient funds",
			"strategy", order.Strategy,
			"market", order.MarketID,
			"cost", trade.Notional()+trade.Fees,
			"cash", c.pf.Cash(),
		)
		return
	}

	c.results.Execution.TotalFees += trade.Fees
	c.results.Execution.TotalVolume += trade.Notional()
	c.results.recordTrade(trade)
}

// checkStopLoss force-closes a position whose unrealized loss exceeds the
// configured fraction of its cost basis.
func (c *core) checkStopLoss(m domain.MarketSnapshot) {
	stop := c.gate.limits.StopLossPct
	if stop <= 0 {
		return
	}
	pos, ok := c.pf.Position(m.MarketID)
	if !ok {
		return
	}
	cost := pos.TotalCostBasis()
	if cost <= 0 {
		return
	}
	loss := -pos.UnrealizedPnL(m.YesPrice)
	if loss/cost < stop {
		return
	}

	slog.Warn("engine: stop loss hit",
		"market", m.MarketID,
		"loss", loss,
		"cost_basis", cost,
	)
	for _, exit := range []struct {
		side   domain.OrderSide
		shares float64
	}{
		{domain.SellYes, pos.YesShares},
		{domain.SellNo, pos.NoShares},
	} {
		if exit.shares <= 0 {
			continue
		}
		c.submitOrder(domain.Order{
			OrderID:   uuid.New().String(),
			MarketID:  m.MarketID,
			Platform:  m.Platform,
			Side:      exit.side,
			Type:      domain.OrderMarket,
			Size:      exit.shares,
			CreatedAt: c.currentTime,
			Strategy:  stopLossStrategy,
		})
	}
}

// recordEquity snapshots equity at the current exchange prices and feeds
// the daily-loss tracker. Samples are strictly ordered: a timestamp at or
// before the curve tail (the final snapshot landing on an interval sample)
// is dropped.
func (c *core) recordEquity(at time.Time) {
	if curve := c.pf.EquityCurve(); len(curve) > 0 && !at.After(curve[len(curve)-1].Timestamp) {
		return
	}
	c.pf.RecordEquity(at, c.ex.YesPrices())
	curve := c.pf.EquityCurve()
	c.gate.observeEquity(at, curve[len(curve)-1].Equity)
}

// finalize closes the results artefact.
func (c *core) finalize(start, end time.Time, periodsPerYear float64) *Results {
	r := c.results
	r.StartDate = start
	r.EndDate = end
	r.FinalValue = c.pf.Value(c.ex.YesPrices())
	if r.InitialCapital > 0 {
		r.TotalReturnPct = (r.FinalValue - r.InitialCapital) / r.InitialCapital
	}
	r.Metrics = c.pf.Metrics(periodsPerYear)
	r.Trades = c.pf.Trades()
	r.Resolutions = c.pf.Resolutions()
	r.EquityCurve = c.pf.EquityCurve()

	fills := r.Execution.OrdersFilled + r.Execution.OrdersPartial
	if fills > 0 {
		r.Execution.AvgSlippage = c.sumSlippage / float64(fills)
	}
	if r.Execution.OrdersSubmitted > 0 {
		r.Execution.AvgLatencyMs = c.sumLatency / float64(r.Execution.OrdersSubmitted)
	}
	return r
}

// periodsPerYear converts the equity-recording interval into the
// annualisation factor for Sharpe/Sortino.
func periodsPerYear(interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return 365.25 * 24 * float64(time.Hour) / float64(interval)
}
