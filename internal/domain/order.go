package domain

import "time"

// OrderSide is the four-way side of a prediction-market order.
type OrderSide string

const (
	BuyYes  OrderSide = "buy_yes"
	BuyNo   OrderSide = "buy_no"
	SellYes OrderSide = "sell_yes"
	SellNo  OrderSide = "sell_no"
)

// IsBuy reports whether the side opens (or adds to) a position.
func (s OrderSide) IsBuy() bool {
	return s == BuyYes || s == BuyNo
}

// IsYes reports whether the side trades YES shares.
func (s OrderSide) IsYes() bool {
	return s == BuyYes || s == SellYes
}

// Valid reports whether s is one of the four known sides.
func (s OrderSide) Valid() bool {
	switch s {
	case BuyYes, BuyNo, SellYes, SellNo:
		return true
	}
	return false
}

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderIOC    OrderType = "ioc"
	OrderFOK    OrderType = "fok"
)

// Order is a request to trade. Orders are transient: they are submitted
// to the simulated exchange, filled or rejected, and discarded. A fill
// produces a TradeEvent in the portfolio ledger.
type Order struct {
	OrderID    string    `json:"order_id"`
	MarketID   string    `json:"market_id"`
	Platform   Platform  `json:"platform"`
	Side       OrderSide `json:"side"`
	Type       OrderType `json:"type"`
	Size       float64   `json:"size"`
	LimitPrice *float64  `json:"limit_price,omitempty"` // required for limit orders
	CreatedAt  time.Time `json:"created_at"`
	Strategy   string    `json:"strategy,omitempty"` // name of the emitting strategy
}

// Validate returns a rejection reason for malformed orders, or "" if ok.
func (o Order) Validate() string {
	if o.Size <= 0 {
		return "invalid_order"
	}
	if o.Type == OrderLimit || o.Type == OrderIOC || o.Type == OrderFOK {
		if o.LimitPrice == nil {
			return "invalid_order"
		}
		if *o.LimitPrice < 0 || *o.LimitPrice > 1 {
			return "invalid_order"
		}
	}
	return ""
}

// FillStatus is the terminal state of a submitted order.
type FillStatus string

const (
	FillFilled    FillStatus = "filled"
	FillPartial   FillStatus = "partial"
	FillRejected  FillStatus = "rejected"
	FillCancelled FillStatus = "cancelled"
)

// Rejection reasons returned by the simulated exchange.
const (
	ReasonInvalidOrder    = "invalid_order"
	ReasonMarketNotFound  = "market_not_found"
	ReasonNoLiquidity     = "no_liquidity"
	ReasonPriceAboveLimit = "price_above_limit"
	ReasonPriceBelowLimit = "price_below_limit"
)

// FillResult is what the simulated exchange returns for a submitted order.
type FillResult struct {
	Status     FillStatus `json:"status"`
	FilledSize float64    `json:"filled_size"`
	FillPrice  float64    `json:"fill_price"`
	Fees       float64    `json:"fees"`
	Slippage   float64    `json:"slippage"`
	LatencyMs  float64    `json:"latency_ms"`
	Reason     string     `json:"reason,omitempty"`
}

// Filled reports whether any quantity executed.
func (r FillResult) Filled() bool {
	return (r.Status == FillFilled || r.Status == FillPartial) && r.FilledSize > 0
}
