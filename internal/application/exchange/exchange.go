package exchange

// Simulated exchange: keeps the latest market and book snapshot per market,
// fills submitted orders through a pluggable fill model, and stamps results
// with sampled latency and platform fees. Owned by one engine; callers
// serialize access the same way they do for the portfolio.

import (
	"log/slog"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// Execution pairs a submitted order with its fill result.
type Execution struct {
	Order  domain.Order      `json:"order"`
	Result domain.FillResult `json:"result"`
}

// Simulated is the paper exchange backing both engines.
type Simulated struct {
	markets map[string]domain.MarketSnapshot
	books   map[string]domain.OrderBookSnapshot
	fill    FillModel
	latency *LatencyModel
	fees    FeeModel
	history []Execution
}

// New creates a simulated exchange with the given models.
func New(fill FillModel, latency *LatencyModel, fees FeeModel) *Simulated {
	return &Simulated{
		markets: make(map[string]domain.MarketSnapshot),
		books:   make(map[string]domain.OrderBookSnapshot),
		fill:    fill,
		latency: latency,
		fees:    fees,
	}
}

// UpdateMarket replaces the stored snapshot for the market.
func (ex *Simulated) UpdateMarket(snapshot domain.MarketSnapshot) {
	ex.markets[snapshot.MarketID] = snapshot
}

// UpdateOrderBook replaces the stored book for the market.
func (ex *Simulated) UpdateOrderBook(book domain.OrderBookSnapshot) {
	ex.books[book.MarketID] = book
}

// Market returns the latest snapshot for marketID, if any.
func (ex *Simulated) Market(marketID string) (domain.MarketSnapshot, bool) {
	m, ok := ex.markets[marketID]
	return m, ok
}

// MarketPrice returns the current price for the given side of a market.
// YES sides read the YES price, NO sides the NO price.
func (ex *Simulated) MarketPrice(marketID string, side domain.OrderSide) (float64, bool) {
	m, ok := ex.markets[marketID]
	if !ok {
		return 0, false
	}
	return m.Price(side), true
}

// YesPrices returns marketID → current YES price for all known markets,
// the shape the portfolio wants for mark-to-market.
func (ex *Simulated) YesPrices() map[string]float64 {
	prices := make(map[string]float64, len(ex.markets))
	for id, m := range ex.markets {
		prices[id] = m.YesPrice
	}
	return prices
}

// AvailableLiquidity returns the size available to an aggressive order of
// the given side: the book's taking side when we have a book, otherwise
// the snapshot's aggregate liquidity figure.
func (ex *Simulated) AvailableLiquidity(marketID string, side domain.OrderSide) float64 {
	if book, ok := ex.books[marketID]; ok {
		if side.IsBuy() {
			return book.AskDepth()
		}
		return book.BidDepth()
	}
	if m, ok := ex.markets[marketID]; ok {
		return m.Liquidity
	}
	return 0
}

// SubmitOrder runs an order through the fill model and returns the result.
// Latency is stamped on every result, fees only on fills. The execution is
// appended to history either way.
func (ex *Simulated) SubmitOrder(order domain.Order) domain.FillResult {
	var result domain.FillResult

	price, ok := ex.MarketPrice(order.MarketID, order.Side)
	if !ok {
		result = domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonMarketNotFound}
	} else {
		liquidity := ex.AvailableLiquidity(order.MarketID, order.Side)
		var book *domain.OrderBookSnapshot
		if b, hasBook := ex.books[order.MarketID]; hasBook {
			book = &b
		}
		result = ex.fill.Fill(order, price, liquidity, book)
	}

	result.LatencyMs = ex.latency.Sample()

	if result.Filled() {
		isMaker := order.Type == domain.OrderLimit
		result.Fees = ex.fees.Fees(order.Platform, result.FilledSize, result.FillPrice, isMaker)
	} else {
		slog.Debug("exchange: order rejected",
			"market", order.MarketID,
			"side", order.Side,
			"reason", result.Reason,
		)
	}

	ex.history = append(ex.history, Execution{Order: order, Result: result})
	return result
}

// CancelOrder is a no-op in the simulator: orders fill or reject
// synchronously, so there is never a resting order to cancel.
func (ex *Simulated) CancelOrder(orderID string) bool {
	return false
}

// History returns every execution seen since the last reset.
func (ex *Simulated) History() []Execution { return ex.history }

// Reset drops all market state and execution history.
func (ex *Simulated) Reset() {
	ex.markets = make(map[string]domain.MarketSnapshot)
	ex.books = make(map[string]domain.OrderBookSnapshot)
	ex.history = nil
}
