package domain

import (
	"time"

	"github.com/google/uuid"
)

// StrategySignal is the richer order form strategies emit in paper mode.
// Besides the order itself it carries a confidence score and optional
// stop/target hints the risk layer can act on.
type StrategySignal struct {
	MarketID    string    `json:"market_id"`
	Platform    Platform  `json:"platform"`
	Side        OrderSide `json:"side"`
	Size        float64   `json:"size"`
	LimitPrice  *float64  `json:"limit_price,omitempty"`
	Confidence  float64   `json:"confidence"` // in [0,1]
	StopPrice   *float64  `json:"stop_price,omitempty"`
	TargetPrice *float64  `json:"target_price,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
}

// ToOrder converts the signal to a submittable order at the given time.
// Signals with a limit price become limit orders, the rest market orders.
func (s StrategySignal) ToOrder(at time.Time) Order {
	typ := OrderMarket
	if s.LimitPrice != nil {
		typ = OrderLimit
	}
	return Order{
		OrderID:    uuid.New().String(),
		MarketID:   s.MarketID,
		Platform:   s.Platform,
		Side:       s.Side,
		Type:       typ,
		Size:       s.Size,
		LimitPrice: s.LimitPrice,
		CreatedAt:  at,
		Strategy:   s.Strategy,
	}
}

// Float returns a pointer to v. Convenience for optional prices.
func Float(v float64) *float64 { return &v }
