package exchange

import (
	"math"
	"math/rand"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// FillModel decides whether and how an order executes against the current
// market state. Implementations must be deterministic for a fixed seed.
type FillModel interface {
	Fill(order domain.Order, marketPrice, liquidity float64, book *domain.OrderBookSnapshot) domain.FillResult
}

// FillConfig parameterizes the stochastic parts of the fill models.
type FillConfig struct {
	ProbFillOnLimit   float64 `yaml:"prob_fill_on_limit"` // chance an adversely crossed limit still fills at its price
	ProbSlippage      float64 `yaml:"prob_slippage"`      // chance a fill pays slippage at all
	MaxSlippageBps    float64 `yaml:"max_slippage_bps"`   // slippage ceiling in basis points of price
	PriceImpactFactor float64 `yaml:"price_impact_factor"` // scales the size/liquidity impact term
	Seed              int64   `yaml:"random_seed"`         // 0 seeds from the clock
}

// DefaultFillConfig returns the parameters used when the config omits them.
func DefaultFillConfig() FillConfig {
	return FillConfig{
		ProbFillOnLimit:   0.7,
		ProbSlippage:      0.3,
		MaxSlippageBps:    50,
		PriceImpactFactor: 1.0,
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// BasicFillModel fills against aggregate liquidity with probabilistic
// slippage. It never looks at the order book.
type BasicFillModel struct {
	cfg FillConfig
	rng *rand.Rand
}

// NewBasicFillModel creates a basic fill model.
func NewBasicFillModel(cfg FillConfig) *BasicFillModel {
	if cfg.PriceImpactFactor <= 0 {
		cfg.PriceImpactFactor = 1.0
	}
	return &BasicFillModel{cfg: cfg, rng: newRand(cfg.Seed)}
}

// Fill implements FillModel. The book argument is ignored.
func (m *BasicFillModel) Fill(order domain.Order, marketPrice, liquidity float64, _ *domain.OrderBookSnapshot) domain.FillResult {
	if reason := order.Validate(); reason != "" {
		return domain.FillResult{Status: domain.FillRejected, Reason: reason}
	}
	if liquidity <= 0 {
		return domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonNoLiquidity}
	}

	fillSize := math.Min(order.Size, liquidity)
	fillPrice := marketPrice

	if m.rng.Float64() < m.cfg.ProbSlippage {
		impact := math.Min(fillSize/liquidity, 0.5) * 2 * m.cfg.PriceImpactFactor
		slip := m.rng.Float64() * m.cfg.MaxSlippageBps / 10000 * impact
		if order.Side.IsBuy() {
			fillPrice += slip
		} else {
			fillPrice -= slip
		}
	}
	fillPrice = clampPrice(fillPrice)

	if order.LimitPrice != nil && order.Type != domain.OrderMarket {
		limit := *order.LimitPrice
		crossed := (order.Side.IsBuy() && fillPrice > limit) ||
			(!order.Side.IsBuy() && fillPrice < limit)
		if crossed {
			if m.rng.Float64() < m.cfg.ProbFillOnLimit {
				fillPrice = clampPrice(limit)
			} else {
				reason := domain.ReasonPriceAboveLimit
				if !order.Side.IsBuy() {
					reason = domain.ReasonPriceBelowLimit
				}
				return domain.FillResult{Status: domain.FillRejected, Reason: reason}
			}
		}
	}

	status := domain.FillPartial
	if fillSize >= order.Size {
		status = domain.FillFilled
	}
	if order.Type == domain.OrderFOK && status != domain.FillFilled {
		return domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonNoLiquidity}
	}

	return domain.FillResult{
		Status:     status,
		FilledSize: fillSize,
		FillPrice:  fillPrice,
		Slippage:   math.Abs(fillPrice - marketPrice),
	}
}

// BookFillModel walks the order book level by level when a book is
// available, falling back to the basic model when it is not. This is the
// "realistic" model from the configuration.
type BookFillModel struct {
	basic *BasicFillModel
}

// NewBookFillModel creates a book-walking fill model.
func NewBookFillModel(cfg FillConfig) *BookFillModel {
	return &BookFillModel{basic: NewBasicFillModel(cfg)}
}

// Fill implements FillModel.
func (m *BookFillModel) Fill(order domain.Order, marketPrice, liquidity float64, book *domain.OrderBookSnapshot) domain.FillResult {
	if book == nil {
		return m.basic.Fill(order, marketPrice, liquidity, nil)
	}
	if reason := order.Validate(); reason != "" {
		return domain.FillResult{Status: domain.FillRejected, Reason: reason}
	}

	levels := book.TakingSide(order.Side)
	if len(levels) == 0 {
		return domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonNoLiquidity}
	}
	bestPrice := levels[0].Price

	remaining := order.Size
	var filled, cost float64
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		if order.LimitPrice != nil {
			if order.Side.IsBuy() && lvl.Price > *order.LimitPrice {
				break
			}
			if !order.Side.IsBuy() && lvl.Price < *order.LimitPrice {
				break
			}
		}
		take := math.Min(remaining, lvl.Size)
		filled += take
		cost += take * lvl.Price
		remaining -= take
	}

	if filled <= 0 {
		if order.LimitPrice != nil {
			reason := domain.ReasonPriceAboveLimit
			if !order.Side.IsBuy() {
				reason = domain.ReasonPriceBelowLimit
			}
			return domain.FillResult{Status: domain.FillRejected, Reason: reason}
		}
		return domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonNoLiquidity}
	}

	status := domain.FillPartial
	if filled >= order.Size {
		status = domain.FillFilled
	}
	if order.Type == domain.OrderFOK && status != domain.FillFilled {
		return domain.FillResult{Status: domain.FillRejected, Reason: domain.ReasonNoLiquidity}
	}

	avgPrice := cost / filled
	return domain.FillResult{
		Status:     status,
		FilledSize: filled,
		FillPrice:  avgPrice,
		Slippage:   math.Abs(avgPrice - bestPrice),
	}
}

// clampPrice keeps prices inside [0.01, 0.99] rounded to 4 decimals.
func clampPrice(p float64) float64 {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	return math.Round(p*10000) / 10000
}
