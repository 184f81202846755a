package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// ArbitrageConfig tunes the cross-platform arbitrage strategy.
type ArbitrageConfig struct {
	MinSpread    float64 `yaml:"min_spread"`
	MaxSpread    float64 `yaml:"max_spread"` // spreads beyond this are treated as different questions
	MinLiquidity float64 `yaml:"min_liquidity"`
	OrderSize    float64 `yaml:"order_size"`
}

// DefaultArbitrageConfig returns the stock parameters.
func DefaultArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		MinSpread:    0.02,
		MaxSpread:    0.20,
		MinLiquidity: 1000,
		OrderSize:    100,
	}
}

// Arbitrage pairs markets asking the same question on different platforms
// and buys the cheaper YES when the price gap is inside the configured
// band. If we already hold the expensive side, it is sold against the buy.
//
// The question match is a lowercase/strip-prefix heuristic; a semantic
// matcher can replace normalizeQuestion without touching the rest.
type Arbitrage struct {
	cfg ArbitrageConfig
	// normalized question → platform → market ID
	questions map[string]map[domain.Platform]string
	snapshots map[string]domain.MarketSnapshot
}

// NewArbitrage creates the strategy.
func NewArbitrage(cfg ArbitrageConfig) *Arbitrage {
	if cfg.MinSpread <= 0 {
		cfg.MinSpread = DefaultArbitrageConfig().MinSpread
	}
	if cfg.MaxSpread <= 0 {
		cfg.MaxSpread = DefaultArbitrageConfig().MaxSpread
	}
	if cfg.OrderSize <= 0 {
		cfg.OrderSize = DefaultArbitrageConfig().OrderSize
	}
	return &Arbitrage{
		cfg:       cfg,
		questions: make(map[string]map[domain.Platform]string),
		snapshots: make(map[string]domain.MarketSnapshot),
	}
}

// Name implements Strategy.
func (s *Arbitrage) Name() string { return "arbitrage" }

var questionPrefixes = []string{"will ", "is ", "does ", "can "}

// normalizeQuestion lowercases and strips the leading question word so
// "Will X happen?" and "will x happen?" collide across platforms.
func normalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(q, prefix) {
			q = strings.TrimPrefix(q, prefix)
			break
		}
	}
	return strings.TrimSpace(q)
}

// OnMarketUpdate implements Strategy.
func (s *Arbitrage) OnMarketUpdate(event domain.MarketUpdateEvent, pf PortfolioView) []domain.StrategySignal {
	m := event.Market
	s.snapshots[m.MarketID] = m

	key := normalizeQuestion(m.Question)
	if key == "" {
		return nil
	}
	byPlatform, ok := s.questions[key]
	if !ok {
		byPlatform = make(map[domain.Platform]string)
		s.questions[key] = byPlatform
	}
	byPlatform[m.Platform] = m.MarketID

	var signals []domain.StrategySignal
	for platform, otherID := range byPlatform {
		if platform == m.Platform {
			continue
		}
		other, ok := s.snapshots[otherID]
		if !ok {
			continue
		}

		spread := math.Abs(m.YesPrice - other.YesPrice)
		if spread < s.cfg.MinSpread || spread > s.cfg.MaxSpread {
			continue
		}
		if m.Liquidity < s.cfg.MinLiquidity || other.Liquidity < s.cfg.MinLiquidity {
			continue
		}

		cheap, rich := m, other
		if other.YesPrice < m.YesPrice {
			cheap, rich = other, m
		}

		confidence := math.Min(1, spread/s.cfg.MinSpread)
		size := s.cfg.OrderSize * confidence
		reason := fmt.Sprintf("spread %.4f vs %s on %s", spread, rich.MarketID, rich.Platform)

		signals = append(signals, domain.StrategySignal{
			MarketID:   cheap.MarketID,
			Platform:   cheap.Platform,
			Side:       domain.BuyYes,
			Size:       size,
			Confidence: confidence,
			Reason:     reason,
			Strategy:   s.Name(),
		})

		// Only unwind the expensive side if we actually hold it.
		if pos, held := pf.Position(rich.MarketID); held && pos.YesShares > 0 {
			sellSize := math.Min(size, pos.YesShares)
			signals = append(signals, domain.StrategySignal{
				MarketID:   rich.MarketID,
				Platform:   rich.Platform,
				Side:       domain.SellYes,
				Size:       sellSize,
				Confidence: confidence,
				Reason:     reason,
				Strategy:   s.Name(),
			})
		}
	}

	return signals
}

// OnOrderBookUpdate implements Strategy. Book updates are ignored.
func (s *Arbitrage) OnOrderBookUpdate(domain.OrderBookUpdateEvent, PortfolioView) []domain.StrategySignal {
	return nil
}

// OnResolution implements Strategy.
func (s *Arbitrage) OnResolution(event domain.ResolutionEvent) {
	id := event.Resolution.MarketID
	delete(s.snapshots, id)
	for key, byPlatform := range s.questions {
		for platform, marketID := range byPlatform {
			if marketID == id {
				delete(byPlatform, platform)
			}
		}
		if len(byPlatform) == 0 {
			delete(s.questions, key)
		}
	}
}
