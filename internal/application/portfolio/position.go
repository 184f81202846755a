package portfolio

import (
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// Position is the dual-sided holding in one market. YES and NO shares are
// tracked independently with their own weighted-average cost books: holding
// both at once is legal and common (e.g. for market making).
type Position struct {
	MarketID     string          `json:"market_id"`
	Platform     domain.Platform `json:"platform"`
	YesShares    float64         `json:"yes_shares"`
	NoShares     float64         `json:"no_shares"`
	YesAvgPrice  float64         `json:"yes_avg_price"`
	NoAvgPrice   float64         `json:"no_avg_price"`
	YesCostBasis float64         `json:"yes_cost_basis"`
	NoCostBasis  float64         `json:"no_cost_basis"`
	OpenedAt     time.Time       `json:"opened_at"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// applyBuy folds a buy of size shares at price (plus fees) into one side's
// weighted-average cost book.
func (p *Position) applyBuy(side domain.OrderSide, size, price, fees float64, at time.Time) {
	if side.IsYes() {
		total := p.YesShares + size
		p.YesAvgPrice = (p.YesShares*p.YesAvgPrice + size*price) / total
		p.YesCostBasis += size*price + fees
		p.YesShares = total
	} else {
		total := p.NoShares + size
		p.NoAvgPrice = (p.NoShares*p.NoAvgPrice + size*price) / total
		p.NoCostBasis += size*price + fees
		p.NoShares = total
	}
	p.LastUpdated = at
}

// applySell reduces one side by size shares, flooring at zero, and shrinks
// the cost basis proportionally to the fraction of shares sold.
func (p *Position) applySell(side domain.OrderSide, size float64, at time.Time) {
	if side.IsYes() {
		if p.YesShares > 0 {
			ratio := size / p.YesShares
			if ratio > 1 {
				ratio = 1
			}
			p.YesCostBasis *= 1 - ratio
		}
		p.YesShares -= size
		if p.YesShares < 0 {
			p.YesShares = 0
		}
		if p.YesShares == 0 {
			p.YesCostBasis = 0
			p.YesAvgPrice = 0
		}
	} else {
		if p.NoShares > 0 {
			ratio := size / p.NoShares
			if ratio > 1 {
				ratio = 1
			}
			p.NoCostBasis *= 1 - ratio
		}
		p.NoShares -= size
		if p.NoShares < 0 {
			p.NoShares = 0
		}
		if p.NoShares == 0 {
			p.NoCostBasis = 0
			p.NoAvgPrice = 0
		}
	}
	p.LastUpdated = at
}

// TotalCostBasis returns the combined YES+NO cost basis.
func (p Position) TotalCostBasis() float64 {
	return p.YesCostBasis + p.NoCostBasis
}

// IsFlat reports whether both sides are zero.
func (p Position) IsFlat() bool {
	return p.YesShares <= 0 && p.NoShares <= 0
}

// MarketValue prices the position at the given YES price:
// yes_shares·p + no_shares·(1−p).
func (p Position) MarketValue(yesPrice float64) float64 {
	return p.YesShares*yesPrice + p.NoShares*(1-yesPrice)
}

// UnrealizedPnL is the market value minus total cost basis at yesPrice.
func (p Position) UnrealizedPnL(yesPrice float64) float64 {
	return p.MarketValue(yesPrice) - p.TotalCostBasis()
}

// NetShares returns yes_shares − no_shares, the directional exposure used
// for inventory skew.
func (p Position) NetShares() float64 {
	return p.YesShares - p.NoShares
}
