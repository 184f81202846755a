package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// SpikeMode selects how the detector trades a spike.
type SpikeMode string

const (
	// SpikeModeMomentum follows the spike direction.
	SpikeModeMomentum SpikeMode = "momentum"
	// SpikeModeMeanReversion trades against the spike.
	SpikeModeMeanReversion SpikeMode = "mean_reversion"
)

// SpikeConfig tunes the price/volume spike detector.
type SpikeConfig struct {
	Lookback        int       `yaml:"lookback"`
	SpikeThreshold  float64   `yaml:"spike_threshold"`  // min |Δp|/avg price
	MinVolumeSpike  float64   `yaml:"min_volume_spike"` // min volume/avg volume
	CooldownMinutes float64   `yaml:"cooldown_minutes"`
	Mode            SpikeMode `yaml:"mode"`
	OrderSize       float64   `yaml:"order_size"`
}

// DefaultSpikeConfig returns the stock parameters.
func DefaultSpikeConfig() SpikeConfig {
	return SpikeConfig{
		Lookback:        10,
		SpikeThreshold:  0.05,
		MinVolumeSpike:  2.0,
		CooldownMinutes: 30,
		Mode:            SpikeModeMeanReversion,
		OrderSize:       100,
	}
}

// PricePoint is one observation in the spike detector's window.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// SpikeDetector fires when a price move of at least SpikeThreshold relative
// to the window average coincides with a volume surge of at least
// MinVolumeSpike times the average. A per-market cooldown suppresses
// follow-on trades while a spike plays out.
type SpikeDetector struct {
	cfg       SpikeConfig
	points    map[string][]PricePoint
	lastFired map[string]time.Time
}

// NewSpikeDetector creates the strategy.
func NewSpikeDetector(cfg SpikeConfig) *SpikeDetector {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultSpikeConfig().Lookback
	}
	if cfg.Mode == "" {
		cfg.Mode = SpikeModeMeanReversion
	}
	if cfg.OrderSize <= 0 {
		cfg.OrderSize = DefaultSpikeConfig().OrderSize
	}
	return &SpikeDetector{
		cfg:       cfg,
		points:    make(map[string][]PricePoint),
		lastFired: make(map[string]time.Time),
	}
}

// Name implements Strategy.
func (s *SpikeDetector) Name() string { return "spike_detector" }

// OnMarketUpdate implements Strategy.
func (s *SpikeDetector) OnMarketUpdate(event domain.MarketUpdateEvent, _ PortfolioView) []domain.StrategySignal {
	m := event.Market
	point := PricePoint{Timestamp: m.Timestamp, Price: m.YesPrice, Volume: m.Volume24h}

	window := s.points[m.MarketID]
	defer func() {
		window = append(window, point)
		if len(window) > s.cfg.Lookback {
			window = window[len(window)-s.cfg.Lookback:]
		}
		s.points[m.MarketID] = window
	}()

	if len(window) < s.cfg.Lookback {
		return nil
	}

	if fired, ok := s.lastFired[m.MarketID]; ok {
		cooldown := time.Duration(s.cfg.CooldownMinutes * float64(time.Minute))
		if m.Timestamp.Sub(fired) < cooldown {
			return nil
		}
	}

	var sumPrice, sumVol float64
	for _, p := range window {
		sumPrice += p.Price
		sumVol += p.Volume
	}
	avgPrice := sumPrice / float64(len(window))
	avgVol := sumVol / float64(len(window))
	if avgPrice == 0 || avgVol == 0 {
		return nil
	}

	change := (m.YesPrice - avgPrice) / avgPrice
	volRatio := m.Volume24h / avgVol

	if math.Abs(change) < s.cfg.SpikeThreshold || volRatio < s.cfg.MinVolumeSpike {
		return nil
	}

	s.lastFired[m.MarketID] = m.Timestamp
	confidence := math.Min(1, math.Abs(change)/(2*s.cfg.SpikeThreshold))

	var side domain.OrderSide
	if s.cfg.Mode == SpikeModeMomentum {
		side = domain.BuyYes
		if change < 0 {
			side = domain.BuyNo
		}
	} else {
		// Fade the move: a spike up buys NO expecting a fall back.
		side = domain.BuyNo
		if change < 0 {
			side = domain.BuyYes
		}
	}

	return []domain.StrategySignal{{
		MarketID:    m.MarketID,
		Platform:    m.Platform,
		Side:        side,
		Size:        s.cfg.OrderSize,
		Confidence:  confidence,
		TargetPrice: domain.Float(avgPrice),
		Reason: fmt.Sprintf("spike %.1f%% on %.1fx volume (%s)",
			change*100, volRatio, s.cfg.Mode),
		Strategy: s.Name(),
	}}
}

// OnOrderBookUpdate implements Strategy. Book updates are ignored.
func (s *SpikeDetector) OnOrderBookUpdate(domain.OrderBookUpdateEvent, PortfolioView) []domain.StrategySignal {
	return nil
}

// OnResolution implements Strategy.
func (s *SpikeDetector) OnResolution(event domain.ResolutionEvent) {
	delete(s.points, event.Resolution.MarketID)
	delete(s.lastFired, event.Resolution.MarketID)
}
