package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// MarketMakerConfig tunes the two-sided quoting strategy.
type MarketMakerConfig struct {
	TargetSpread           float64 `yaml:"target_spread"`
	MinSpread              float64 `yaml:"min_spread"`
	MinEdge                float64 `yaml:"min_edge"` // min |FV − mid| before requoting
	MaxInventory           float64 `yaml:"max_inventory"` // per side, in shares
	InventorySkew          float64 `yaml:"inventory_skew"`
	RefreshIntervalSeconds float64 `yaml:"refresh_interval_seconds"`
	OrderSize              float64 `yaml:"order_size"`
	EMAAlpha               float64 `yaml:"ema_alpha"`
}

// DefaultMarketMakerConfig returns the stock parameters.
func DefaultMarketMakerConfig() MarketMakerConfig {
	return MarketMakerConfig{
		TargetSpread:           0.04,
		MinSpread:              0.01,
		MinEdge:                0.005,
		MaxInventory:           500,
		InventorySkew:          0.5,
		RefreshIntervalSeconds: 60,
		OrderSize:              100,
		EMAAlpha:               0.3,
	}
}

type mmState struct {
	fairValue  float64
	samples    int
	lastQuoted time.Time
}

// MarketMaker quotes both sides of a market around an EMA fair value,
// skewing quotes against its inventory. Instead of resting an ask it buys
// NO at 1 − ask: in a binary market that has the same payoff as selling
// YES at the ask, and it keeps the simulated portfolio long-only.
type MarketMaker struct {
	cfg   MarketMakerConfig
	state map[string]*mmState
}

// NewMarketMaker creates the strategy.
func NewMarketMaker(cfg MarketMakerConfig) *MarketMaker {
	if cfg.TargetSpread <= 0 {
		cfg.TargetSpread = DefaultMarketMakerConfig().TargetSpread
	}
	if cfg.EMAAlpha <= 0 || cfg.EMAAlpha > 1 {
		cfg.EMAAlpha = DefaultMarketMakerConfig().EMAAlpha
	}
	if cfg.MaxInventory <= 0 {
		cfg.MaxInventory = DefaultMarketMakerConfig().MaxInventory
	}
	if cfg.OrderSize <= 0 {
		cfg.OrderSize = DefaultMarketMakerConfig().OrderSize
	}
	return &MarketMaker{cfg: cfg, state: make(map[string]*mmState)}
}

// Name implements Strategy.
func (s *MarketMaker) Name() string { return "market_maker" }

// OnMarketUpdate implements Strategy.
func (s *MarketMaker) OnMarketUpdate(event domain.MarketUpdateEvent, pf PortfolioView) []domain.StrategySignal {
	m := event.Market

	st, ok := s.state[m.MarketID]
	if !ok {
		st = &mmState{fairValue: m.YesPrice}
		s.state[m.MarketID] = st
	}
	st.fairValue = s.cfg.EMAAlpha*m.YesPrice + (1-s.cfg.EMAAlpha)*st.fairValue
	st.samples++
	if st.samples < 2 {
		return nil
	}

	refresh := time.Duration(s.cfg.RefreshIntervalSeconds * float64(time.Second))
	if !st.lastQuoted.IsZero() && m.Timestamp.Sub(st.lastQuoted) < refresh {
		return nil
	}
	if math.Abs(st.fairValue-m.YesPrice) < s.cfg.MinEdge {
		return nil
	}

	bid, ask := s.quotes(st.fairValue, s.netPosition(m.MarketID, pf))

	var yesHeld, noHeld float64
	if pos, held := pf.Position(m.MarketID); held {
		yesHeld, noHeld = pos.YesShares, pos.NoShares
	}

	var signals []domain.StrategySignal
	if room := s.cfg.MaxInventory - yesHeld; room > 0 {
		size := math.Min(s.cfg.OrderSize, room)
		signals = append(signals, domain.StrategySignal{
			MarketID:   m.MarketID,
			Platform:   m.Platform,
			Side:       domain.BuyYes,
			Size:       size,
			LimitPrice: domain.Float(bid),
			Confidence: 1,
			Reason:     fmt.Sprintf("quote bid=%.4f fv=%.4f", bid, st.fairValue),
			Strategy:   s.Name(),
		})
	}
	if room := s.cfg.MaxInventory - noHeld; room > 0 {
		size := math.Min(s.cfg.OrderSize, room)
		signals = append(signals, domain.StrategySignal{
			MarketID:   m.MarketID,
			Platform:   m.Platform,
			Side:       domain.BuyNo,
			Size:       size,
			LimitPrice: domain.Float(1 - ask),
			Confidence: 1,
			Reason:     fmt.Sprintf("quote ask=%.4f fv=%.4f", ask, st.fairValue),
			Strategy:   s.Name(),
		})
	}

	if len(signals) > 0 {
		st.lastQuoted = m.Timestamp
	}
	return signals
}

// quotes derives inventory-skewed bid/ask around the fair value.
func (s *MarketMaker) quotes(fv, netPosition float64) (bid, ask float64) {
	half := s.cfg.TargetSpread / 2
	bid = fv - half
	ask = fv + half

	// Long inventory shifts both quotes down to attract sellers of NO /
	// buyers of YES exposure; short shifts them up.
	skew := clamp(netPosition/s.cfg.MaxInventory, -1, 1) * s.cfg.InventorySkew * s.cfg.TargetSpread
	bid -= skew
	ask -= skew

	if ask-bid < s.cfg.MinSpread {
		mid := (ask + bid) / 2
		bid = mid - s.cfg.MinSpread/2
		ask = mid + s.cfg.MinSpread/2
	}

	bid = clamp(bid, 0.01, 0.98)
	ask = clamp(ask, 0.02, 0.99)
	if ask <= bid {
		ask = bid + s.cfg.MinSpread
		if ask > 0.99 {
			ask = 0.99
			bid = ask - s.cfg.MinSpread
		}
	}
	return bid, ask
}

func (s *MarketMaker) netPosition(marketID string, pf PortfolioView) float64 {
	pos, ok := pf.Position(marketID)
	if !ok {
		return 0
	}
	return pos.NetShares()
}

// OnOrderBookUpdate implements Strategy. The EMA runs off market updates;
// book updates are ignored.
func (s *MarketMaker) OnOrderBookUpdate(domain.OrderBookUpdateEvent, PortfolioView) []domain.StrategySignal {
	return nil
}

// OnResolution implements Strategy.
func (s *MarketMaker) OnResolution(event domain.ResolutionEvent) {
	delete(s.state, event.Resolution.MarketID)
}
