package portfolio

// Single-writer ledger of cash, dual-sided positions, trades, resolutions
// and the equity curve. The owning engine is the only mutator: strategies
// get read-only access during their callbacks, so there is no lock here.

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// ResolutionRecord is the ledger entry appended when a tracked market
// resolves.
type ResolutionRecord struct {
	MarketID  string                   `json:"market_id"`
	Platform  domain.Platform          `json:"platform"`
	Outcome   domain.ResolutionOutcome `json:"outcome"`
	Question  string                   `json:"question,omitempty"`
	Payout    float64                  `json:"payout"`
	PnL       float64                  `json:"pnl"`
	Timestamp time.Time                `json:"timestamp"`
}

// Portfolio tracks virtual cash and positions through a simulation run.
type Portfolio struct {
	initialCapital float64
	cash           float64
	positions      map[string]*Position // marketID → position
	trades         []domain.TradeEvent
	resolutions    []ResolutionRecord
	equityCurve    []EquityPoint
	peakEquity     float64
	maxDrawdownPct float64
}

// New creates a portfolio with the given starting cash.
func New(initialCapital float64) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*Position),
		peakEquity:     initialCapital,
	}
}

// Cash returns the current free cash.
func (pf *Portfolio) Cash() float64 { return pf.cash }

// InitialCapital returns the starting cash.
func (pf *Portfolio) InitialCapital() float64 { return pf.initialCapital }

// Position returns a copy of the position for marketID, if any.
func (pf *Portfolio) Position(marketID string) (Position, bool) {
	p, ok := pf.positions[marketID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions.
func (pf *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(pf.positions))
	for _, p := range pf.positions {
		out = append(out, *p)
	}
	return out
}

// OpenPositions returns the number of open positions.
func (pf *Portfolio) OpenPositions() int { return len(pf.positions) }

// Trades returns the trade ledger.
func (pf *Portfolio) Trades() []domain.TradeEvent { return pf.trades }

// Resolutions returns the resolution ledger.
func (pf *Portfolio) Resolutions() []ResolutionRecord { return pf.resolutions }

// EquityCurve returns the recorded equity samples.
func (pf *Portfolio) EquityCurve() []EquityPoint { return pf.equityCurve }

// ExecuteTrade applies a fill to cash and positions and appends it to the
// trade ledger. Buys that exceed available cash return false with no
// mutation. Sells floor the sold side at zero shares.
func (pf *Portfolio) ExecuteTrade(trade domain.TradeEvent) bool {
	if trade.Size <= 0 || trade.Price < 0 || trade.Price > 1 {
		return false
	}

	at := trade.Timestamp
	if trade.Side.IsBuy() {
		cost := trade.Size*trade.Price + trade.Fees
		if pf.cash < cost {
			slog.Debug("portfolio: insufficient funds",
				"market", trade.MarketID,
				"cost", cost,
				"cash", pf.cash,
			)
			return false
		}
		pf.cash -= cost

		pos, ok := pf.positions[trade.MarketID]
		if !ok {
			pos = &Position{
				MarketID: trade.MarketID,
				Platform: trade.Platform,
				OpenedAt: at,
			}
			pf.positions[trade.MarketID] = pos
		}
		pos.applyBuy(trade.Side, trade.Size, trade.Price, trade.Fees, at)
	} else {
		pf.cash += trade.Size*trade.Price - trade.Fees

		if pos, ok := pf.positions[trade.MarketID]; ok {
			pos.applySell(trade.Side, trade.Size, at)
			if pos.IsFlat() {
				delete(pf.positions, trade.MarketID)
			}
		}
	}

	pf.trades = append(pf.trades, trade)
	return true
}

// ResolvePosition settles the position in a resolved market and returns the
// realized PnL. Resolution of an untracked market is a no-op returning 0.
func (pf *Portfolio) ResolvePosition(res domain.MarketResolution) float64 {
	pos, ok := pf.positions[res.MarketID]
	if !ok {
		return 0
	}

	var payout float64
	switch res.Outcome {
	case domain.OutcomeYes:
		payout = pos.YesShares
	case domain.OutcomeNo:
		payout = pos.NoShares
	case domain.OutcomeCancelled:
		payout = pos.TotalCostBasis()
	default: // ambiguous pays nothing
		payout = 0
	}

	pnl := payout - pos.TotalCostBasis()
	pf.cash += payout

	pf.resolutions = append(pf.resolutions, ResolutionRecord{
		MarketID:  res.MarketID,
		Platform:  res.Platform,
		Outcome:   res.Outcome,
		Question:  res.Question,
		Payout:    payout,
		PnL:       pnl,
		Timestamp: res.Timestamp,
	})
	delete(pf.positions, res.MarketID)

	return pnl
}

// Value returns cash plus the market value of all positions. Markets
// without a price in currentPrices are valued at their YES average price.
func (pf *Portfolio) Value(currentPrices map[string]float64) float64 {
	total := pf.cash
	for id, pos := range pf.positions {
		yesPrice, ok := currentPrices[id]
		if !ok {
			yesPrice = pos.YesAvgPrice
		}
		total += pos.MarketValue(yesPrice)
	}
	return total
}

// UnrealizedPnL sums the mark-to-market PnL of all open positions.
func (pf *Portfolio) UnrealizedPnL(currentPrices map[string]float64) float64 {
	var total float64
	for id, pos := range pf.positions {
		yesPrice, ok := currentPrices[id]
		if !ok {
			yesPrice = pos.YesAvgPrice
		}
		total += pos.UnrealizedPnL(yesPrice)
	}
	return total
}

// RealizedPnL sums the PnL of all resolutions.
func (pf *Portfolio) RealizedPnL() float64 {
	var total float64
	for _, r := range pf.resolutions {
		total += r.PnL
	}
	return total
}

// RecordEquity appends an equity sample and updates peak and max drawdown.
func (pf *Portfolio) RecordEquity(at time.Time, currentPrices map[string]float64) {
	equity := pf.Value(currentPrices)
	pf.equityCurve = append(pf.equityCurve, EquityPoint{Timestamp: at, Equity: equity})

	if equity > pf.peakEquity {
		pf.peakEquity = equity
	}
	if pf.peakEquity > 0 {
		dd := (pf.peakEquity - equity) / pf.peakEquity
		if dd > pf.maxDrawdownPct {
			pf.maxDrawdownPct = dd
		}
	}
}

// PeakEquity returns the highest equity seen so far.
func (pf *Portfolio) PeakEquity() float64 { return pf.peakEquity }

// MaxDrawdownPct returns the running max of (peak − equity)/peak, in [0,1].
func (pf *Portfolio) MaxDrawdownPct() float64 { return pf.maxDrawdownPct }

// Metrics computes win/loss and risk statistics from the ledgers.
// periodsPerYear annualizes Sharpe/Sortino; pass 0 for the daily default.
func (pf *Portfolio) Metrics(periodsPerYear float64) Metrics {
	return computeMetrics(pf.resolutions, pf.equityCurve, pf.peakEquity, pf.maxDrawdownPct, pf.initialCapital, periodsPerYear)
}

// Reset restores the portfolio to its initial state.
func (pf *Portfolio) Reset() {
	pf.cash = pf.initialCapital
	pf.positions = make(map[string]*Position)
	pf.trades = nil
	pf.resolutions = nil
	pf.equityCurve = nil
	pf.peakEquity = pf.initialCapital
	pf.maxDrawdownPct = 0
}
