package domain

import "time"

// TradeEvent is an executed trade, either observed on a venue or produced
// by the simulated exchange filling one of our orders.
type TradeEvent struct {
	TradeID   string    `json:"trade_id"`
	MarketID  string    `json:"market_id"`
	Platform  Platform  `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
	Side      OrderSide `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	IsTaker   bool      `json:"is_taker"`
	Fees      float64   `json:"fees"`
	Strategy  string    `json:"strategy,omitempty"`
}

// Notional returns size × price in dollars.
func (t TradeEvent) Notional() float64 {
	return t.Size * t.Price
}

// ResolutionOutcome is the terminal outcome of a binary market.
type ResolutionOutcome string

const (
	OutcomeYes       ResolutionOutcome = "yes"
	OutcomeNo        ResolutionOutcome = "no"
	OutcomeCancelled ResolutionOutcome = "cancelled"
	OutcomeAmbiguous ResolutionOutcome = "ambiguous"
)

// MarketResolution settles all outstanding shares of a market.
// YES shares pay $1 on a YES outcome, NO shares pay $1 on NO; a cancelled
// market refunds cost basis, an ambiguous one pays nothing.
type MarketResolution struct {
	MarketID  string            `json:"market_id"`
	Platform  Platform          `json:"platform"`
	Timestamp time.Time         `json:"timestamp"`
	Outcome   ResolutionOutcome `json:"outcome"`
	Question  string            `json:"question,omitempty"`
}
