package strategy

import (
	"fmt"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// MomentumConfig tunes the RSI/rate-of-change momentum strategy.
type MomentumConfig struct {
	RSIPeriod        int     `yaml:"rsi_period"`
	MomentumPeriod   int     `yaml:"momentum_period"`
	EntryThreshold   float64 `yaml:"entry_threshold"`    // min |momentum| to enter
	MinTrendStrength float64 `yaml:"min_trend_strength"` // min regression R²
	Overbought       float64 `yaml:"overbought"`
	Oversold         float64 `yaml:"oversold"`
	OrderSize        float64 `yaml:"order_size"`
}

// DefaultMomentumConfig returns the stock parameters.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		RSIPeriod:        14,
		MomentumPeriod:   10,
		EntryThreshold:   0.05,
		MinTrendStrength: 0.6,
		Overbought:       70,
		Oversold:         30,
		OrderSize:        100,
	}
}

type trendDirection int

const (
	trendNeutral trendDirection = iota
	trendBullish
	trendBearish
)

// Momentum follows price trends confirmed by RSI and regression strength.
// A bullish signal buys YES and closes any NO holding; bearish is the
// mirror image.
type Momentum struct {
	cfg    MomentumConfig
	prices map[string]*priceRing
}

// NewMomentum creates the strategy.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = DefaultMomentumConfig().RSIPeriod
	}
	if cfg.MomentumPeriod <= 0 {
		cfg.MomentumPeriod = DefaultMomentumConfig().MomentumPeriod
	}
	if cfg.OrderSize <= 0 {
		cfg.OrderSize = DefaultMomentumConfig().OrderSize
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = DefaultMomentumConfig().Overbought
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = DefaultMomentumConfig().Oversold
	}
	return &Momentum{cfg: cfg, prices: make(map[string]*priceRing)}
}

// Name implements Strategy.
func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) window() int {
	w := s.cfg.RSIPeriod
	if s.cfg.MomentumPeriod > w {
		w = s.cfg.MomentumPeriod
	}
	return w + 1
}

// OnMarketUpdate implements Strategy.
func (s *Momentum) OnMarketUpdate(event domain.MarketUpdateEvent, pf PortfolioView) []domain.StrategySignal {
	m := event.Market
	ring, ok := s.prices[m.MarketID]
	if !ok {
		ring = newPriceRing(s.window())
		s.prices[m.MarketID] = ring
	}
	ring.push(m.YesPrice)

	if ring.len() < s.window() {
		return nil
	}

	prices := ring.values()
	rsiVal := rsi(prices, s.cfg.RSIPeriod)
	base := prices[len(prices)-1-s.cfg.MomentumPeriod]
	if base == 0 {
		return nil
	}
	mom := (m.YesPrice - base) / base
	strength := linregR2(prices)

	direction := trendNeutral
	switch {
	case rsiVal > 50 && mom > 0:
		direction = trendBullish
	case rsiVal < 50 && mom < 0:
		direction = trendBearish
	}

	if direction == trendNeutral || strength < s.cfg.MinTrendStrength {
		return nil
	}

	var signals []domain.StrategySignal
	confidence := clamp(strength, 0, 1)
	pos, hasPos := pf.Position(m.MarketID)

	if direction == trendBullish {
		// Close the opposing side before following the trend.
		if hasPos && pos.NoShares > 0 {
			signals = append(signals, domain.StrategySignal{
				MarketID:   m.MarketID,
				Platform:   m.Platform,
				Side:       domain.SellNo,
				Size:       pos.NoShares,
				Confidence: confidence,
				Reason:     "bullish cross-exit",
				Strategy:   s.Name(),
			})
		}
		if mom > s.cfg.EntryThreshold && rsiVal < s.cfg.Overbought {
			signals = append(signals, domain.StrategySignal{
				MarketID:   m.MarketID,
				Platform:   m.Platform,
				Side:       domain.BuyYes,
				Size:       s.cfg.OrderSize,
				Confidence: confidence,
				Reason:     fmt.Sprintf("mom=%.3f rsi=%.1f r2=%.2f", mom, rsiVal, strength),
				Strategy:   s.Name(),
			})
		}
	} else {
		if hasPos && pos.YesShares > 0 {
			signals = append(signals, domain.StrategySignal{
				MarketID:   m.MarketID,
				Platform:   m.Platform,
				Side:       domain.SellYes,
				Size:       pos.YesShares,
				Confidence: confidence,
				Reason:     "bearish cross-exit",
				Strategy:   s.Name(),
			})
		}
		if mom < -s.cfg.EntryThreshold && rsiVal > s.cfg.Oversold {
			signals = append(signals, domain.StrategySignal{
				MarketID:   m.MarketID,
				Platform:   m.Platform,
				Side:       domain.BuyNo,
				Size:       s.cfg.OrderSize,
				Confidence: confidence,
				Reason:     fmt.Sprintf("mom=%.3f rsi=%.1f r2=%.2f", mom, rsiVal, strength),
				Strategy:   s.Name(),
			})
		}
	}

	return signals
}

// OnOrderBookUpdate implements Strategy. Book updates are ignored.
func (s *Momentum) OnOrderBookUpdate(domain.OrderBookUpdateEvent, PortfolioView) []domain.StrategySignal {
	return nil
}

// OnResolution implements Strategy.
func (s *Momentum) OnResolution(event domain.ResolutionEvent) {
	delete(s.prices, event.Resolution.MarketID)
}
