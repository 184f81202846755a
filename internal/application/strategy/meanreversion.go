package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// MeanReversionConfig tunes the z-score mean-reversion strategy.
type MeanReversionConfig struct {
	Lookback        int     `yaml:"lookback"`
	EntryThreshold  float64 `yaml:"entry_threshold"` // |z| to enter
	ExitThreshold   float64 `yaml:"exit_threshold"`  // |z| to exit
	HoldPeriodHours float64 `yaml:"hold_period_hours"` // 0 disables the forced exit
	BandK           float64 `yaml:"band_k"`            // Bollinger multiplier for stop/target hints
	OrderSize       float64 `yaml:"order_size"`
}

// DefaultMeanReversionConfig returns the stock parameters.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		Lookback:        20,
		EntryThreshold:  2.0,
		ExitThreshold:   0.5,
		HoldPeriodHours: 48,
		BandK:           2.0,
		OrderSize:       100,
	}
}

type mrEntry struct {
	side      domain.OrderSide
	enteredAt time.Time
}

// MeanReversion trades z-score deviations of the YES price from its rolling
// mean: far below the mean buys YES, far above buys NO, and positions are
// closed when the price reverts inside the exit band.
type MeanReversion struct {
	cfg     MeanReversionConfig
	prices  map[string]*priceRing
	entries map[string]mrEntry
}

// NewMeanReversion creates the strategy.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	if cfg.Lookback <= 1 {
		cfg.Lookback = DefaultMeanReversionConfig().Lookback
	}
	if cfg.OrderSize <= 0 {
		cfg.OrderSize = DefaultMeanReversionConfig().OrderSize
	}
	return &MeanReversion{
		cfg:     cfg,
		prices:  make(map[string]*priceRing),
		entries: make(map[string]mrEntry),
	}
}

// Name implements Strategy.
func (s *MeanReversion) Name() string { return "mean_reversion" }

// OnMarketUpdate implements Strategy.
func (s *MeanReversion) OnMarketUpdate(event domain.MarketUpdateEvent, pf PortfolioView) []domain.StrategySignal {
	m := event.Market
	ring, ok := s.prices[m.MarketID]
	if !ok {
		ring = newPriceRing(s.cfg.Lookback)
		s.prices[m.MarketID] = ring
	}
	ring.push(m.YesPrice)

	if ring.len() < s.cfg.Lookback {
		return nil
	}

	window := ring.values()
	mu := mean(window)
	sigma := sampleStdev(window)
	if sigma == 0 {
		return nil
	}
	z := (m.YesPrice - mu) / sigma

	if entry, held := s.entries[m.MarketID]; held {
		return s.maybeExit(m, pf, entry, z)
	}

	upper := mu + s.cfg.BandK*sigma
	lower := mu - s.cfg.BandK*sigma
	confidence := clamp(math.Abs(z)/(2*s.cfg.EntryThreshold), 0, 1)

	switch {
	case z < -s.cfg.EntryThreshold:
		s.entries[m.MarketID] = mrEntry{side: domain.BuyYes, enteredAt: m.Timestamp}
		return []domain.StrategySignal{{
			MarketID:    m.MarketID,
			Platform:    m.Platform,
			Side:        domain.BuyYes,
			Size:        s.cfg.OrderSize,
			Confidence:  confidence,
			StopPrice:   domain.Float(lower),
			TargetPrice: domain.Float(mu),
			Reason:      fmt.Sprintf("z=%.2f below mean %.4f", z, mu),
			Strategy:    s.Name(),
		}}
	case z > s.cfg.EntryThreshold:
		s.entries[m.MarketID] = mrEntry{side: domain.BuyNo, enteredAt: m.Timestamp}
		return []domain.StrategySignal{{
			MarketID:    m.MarketID,
			Platform:    m.Platform,
			Side:        domain.BuyNo,
			Size:        s.cfg.OrderSize,
			Confidence:  confidence,
			StopPrice:   domain.Float(upper),
			TargetPrice: domain.Float(mu),
			Reason:      fmt.Sprintf("z=%.2f above mean %.4f", z, mu),
			Strategy:    s.Name(),
		}}
	}
	return nil
}

// maybeExit closes the held side when the price reverts inside the exit
// band or the hold period runs out.
func (s *MeanReversion) maybeExit(m domain.MarketSnapshot, pf PortfolioView, entry mrEntry, z float64) []domain.StrategySignal {
	reverted := math.Abs(z) < s.cfg.ExitThreshold
	expired := s.cfg.HoldPeriodHours > 0 &&
		m.Timestamp.Sub(entry.enteredAt).Hours() > s.cfg.HoldPeriodHours
	if !reverted && !expired {
		return nil
	}

	pos, ok := pf.Position(m.MarketID)
	if !ok {
		delete(s.entries, m.MarketID)
		return nil
	}

	var sellSide domain.OrderSide
	var shares float64
	if entry.side == domain.BuyYes {
		sellSide, shares = domain.SellYes, pos.YesShares
	} else {
		sellSide, shares = domain.SellNo, pos.NoShares
	}
	delete(s.entries, m.MarketID)
	if shares <= 0 {
		return nil
	}

	reason := "reverted to mean"
	if expired {
		reason = "hold period expired"
	}
	return []domain.StrategySignal{{
		MarketID:   m.MarketID,
		Platform:   m.Platform,
		Side:       sellSide,
		Size:       shares,
		Confidence: 1,
		Reason:     reason,
		Strategy:   s.Name(),
	}}
}

// OnOrderBookUpdate implements Strategy. Book updates are ignored.
func (s *MeanReversion) OnOrderBookUpdate(domain.OrderBookUpdateEvent, PortfolioView) []domain.StrategySignal {
	return nil
}

// OnResolution implements Strategy.
func (s *MeanReversion) OnResolution(event domain.ResolutionEvent) {
	delete(s.prices, event.Resolution.MarketID)
	delete(s.entries, event.Resolution.MarketID)
}
