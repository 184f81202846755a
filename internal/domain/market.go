package domain

import "time"

// Platform identifies the prediction-market venue a snapshot came from.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
	PlatformManifold   Platform = "manifold"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformPolymarket, PlatformKalshi, PlatformManifold:
		return true
	}
	return false
}

// MarketStatus is the lifecycle state of a market.
type MarketStatus string

const (
	StatusActive    MarketStatus = "active"
	StatusClosed    MarketStatus = "closed"
	StatusResolved  MarketStatus = "resolved"
	StatusCancelled MarketStatus = "cancelled"
)

// MarketSnapshot is the state of a binary market at a point in time.
// YES and NO prices are quoted independently: their sum is usually close
// to 1 but a spread can exist, so neither side is derived from the other.
type MarketSnapshot struct {
	MarketID       string            `json:"market_id"`
	Platform       Platform          `json:"platform"`
	Timestamp      time.Time         `json:"timestamp"`
	Question       string            `json:"question"`
	YesPrice       float64           `json:"yes_price"` // in [0,1]
	NoPrice        float64           `json:"no_price"`  // in [0,1]
	Volume24h      float64           `json:"volume_24h"`
	Liquidity      float64           `json:"liquidity"`
	ResolutionDate *time.Time        `json:"resolution_date,omitempty"`
	Status         MarketStatus      `json:"status"`
	Tags           []string          `json:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Price returns the quoted price for the given order side:
// YES sides read YesPrice, NO sides read NoPrice.
func (m MarketSnapshot) Price(side OrderSide) float64 {
	if side.IsYes() {
		return m.YesPrice
	}
	return m.NoPrice
}

// HoursToResolution returns the hours between the snapshot timestamp and
// the resolution date. Returns 0 if no resolution date is set or it is past.
func (m MarketSnapshot) HoursToResolution() float64 {
	if m.ResolutionDate == nil {
		return 0
	}
	h := m.ResolutionDate.Sub(m.Timestamp).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// TruncateQuestion returns the market question truncated to maxLen characters.
// Falls back to a prefix of the market ID when the question is empty.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
