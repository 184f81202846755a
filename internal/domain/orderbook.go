package domain

import "time"

// OrderBookLevel is one price level of an order book side.
type OrderBookLevel struct {
	Price      float64 `json:"price"` // in (0,1)
	Size       float64 `json:"size"`
	OrderCount int     `json:"order_count"`
}

// OrderBookSnapshot is the book of a market token at a point in time.
// Bids are sorted descending by price, asks ascending.
type OrderBookSnapshot struct {
	MarketID  string           `json:"market_id"`
	Platform  Platform         `json:"platform"`
	Timestamp time.Time        `json:"timestamp"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
}

// BestBid returns the highest bid price, or 0 if there are no bids.
func (ob OrderBookSnapshot) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 if there are no asks.
func (ob OrderBookSnapshot) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint returns the mid between best bid and best ask.
// Returns 0 if either side is empty.
func (ob OrderBookSnapshot) Midpoint() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread returns ask - bid, or 0 if either side is empty.
func (ob OrderBookSnapshot) Spread() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// BidDepth returns the total size resting on the bid side.
func (ob OrderBookSnapshot) BidDepth() float64 {
	var total float64
	for _, lvl := range ob.Bids {
		total += lvl.Size
	}
	return total
}

// AskDepth returns the total size resting on the ask side.
func (ob OrderBookSnapshot) AskDepth() float64 {
	var total float64
	for _, lvl := range ob.Asks {
		total += lvl.Size
	}
	return total
}

// TakingSide returns the levels an aggressive order of the given side would
// consume: asks for buys, bids for sells. Levels come back in walk order.
func (ob OrderBookSnapshot) TakingSide(side OrderSide) []OrderBookLevel {
	if side.IsBuy() {
		return ob.Asks
	}
	return ob.Bids
}
