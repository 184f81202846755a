package engine

import (
	"time"

	"github.com/alejandrodnm/predsim/internal/application/portfolio"
	"github.com/alejandrodnm/predsim/internal/domain"
)

// RiskLimits bounds what the engine lets strategies do. Zero values
// disable the corresponding check.
type RiskLimits struct {
	MaxPositionSize  float64 `yaml:"max_position_size"` // shares per market, per side
	MaxDailyLoss     float64 `yaml:"max_daily_loss"`    // dollars lost since day start
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MaxPositionPct   float64 `yaml:"max_position_pct"` // order notional vs portfolio value
	StopLossPct      float64 `yaml:"stop_loss_pct"`    // unrealized loss forcing an exit
}

// riskGate applies RiskLimits to every order before submission. Owned by
// the engine, same serial discipline as the portfolio.
type riskGate struct {
	limits         RiskLimits
	day            time.Time
	dayStartEquity float64
	halted         bool
}

func newRiskGate(limits RiskLimits) *riskGate {
	return &riskGate{limits: limits}
}

// observeEquity rolls the daily-loss window and trips the halt when the
// loss since day start exceeds MaxDailyLoss. The halt clears on the next
// simulated day.
func (g *riskGate) observeEquity(at time.Time, equity float64) {
	day := at.Truncate(24 * time.Hour)
	if g.day.IsZero() || day.After(g.day) {
		g.day = day
		g.dayStartEquity = equity
		g.halted = false
		return
	}
	if g.limits.MaxDailyLoss > 0 && g.dayStartEquity-equity > g.limits.MaxDailyLoss {
		g.halted = true
	}
}

// allow returns "" when the order may go out, or the violated limit.
func (g *riskGate) allow(order domain.Order, pf *portfolio.Portfolio, portfolioValue float64) string {
	if !order.Side.IsBuy() {
		return "" // exits are always allowed
	}
	if g.halted {
		return "max_daily_loss"
	}

	pos, held := pf.Position(order.MarketID)

	if g.limits.MaxOpenPositions > 0 && !held && pf.OpenPositions() >= g.limits.MaxOpenPositions {
		return "max_open_positions"
	}

	if g.limits.MaxPositionSize > 0 {
		sideShares := pos.NoShares
		if order.Side.IsYes() {
			sideShares = pos.YesShares
		}
		if sideShares+order.Size > g.limits.MaxPositionSize {
			return "max_position_size"
		}
	}

	if g.limits.MaxPositionPct > 0 && portfolioValue > 0 {
		notional := order.Size // worst case price of $1/share
		if order.LimitPrice != nil {
			notional = order.Size * *order.LimitPrice
		}
		if notional/portfolioValue > g.limits.MaxPositionPct {
			return "max_position_pct"
		}
	}

	return ""
}
