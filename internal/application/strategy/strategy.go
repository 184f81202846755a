package strategy

import (
	"github.com/alejandrodnm/predsim/internal/application/portfolio"
	"github.com/alejandrodnm/predsim/internal/domain"
)

// PortfolioView is the read-only portfolio surface strategies receive
// during a callback. The engine owns the real portfolio; strategies must
// never mutate it.
type PortfolioView interface {
	Cash() float64
	Position(marketID string) (portfolio.Position, bool)
	Positions() []portfolio.Position
	OpenPositions() int
}

// Strategy reacts to simulation events and emits signals. Implementations
// are stateful (per-market buffers) but pure with respect to the engine:
// all trading goes through the returned signals.
//
// Backtest converts signals to orders executed at the event's timestamp;
// paper mode additionally surfaces confidence and stop/target hints.
type Strategy interface {
	// Name is the unique identifier used in results breakdowns and logs.
	Name() string

	// OnMarketUpdate handles a fresh market snapshot.
	OnMarketUpdate(event domain.MarketUpdateEvent, pf PortfolioView) []domain.StrategySignal

	// OnOrderBookUpdate handles a fresh book snapshot.
	OnOrderBookUpdate(event domain.OrderBookUpdateEvent, pf PortfolioView) []domain.StrategySignal

	// OnResolution notifies the strategy that a market settled so it can
	// drop per-market state. No signals are emitted for a dead market.
	OnResolution(event domain.ResolutionEvent)
}

// Registry keeps the available strategies indexed by name.
type Registry map[string]Strategy

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Register adds a strategy to the registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get returns the strategy by name.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}
