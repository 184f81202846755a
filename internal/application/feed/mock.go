package feed

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// MockConfig shapes the synthetic stream.
type MockConfig struct {
	Markets      int
	Platform     domain.Platform
	Start        time.Time
	End          time.Time
	Step         time.Duration
	StartPrice   float64
	Volatility   float64 // per-step stdev of the random walk
	BaseVolume   float64
	ResolveAtEnd bool // emit a YES/NO resolution per market after the walk
	Seed         int64
}

// DefaultMockConfig returns a small deterministic walk for tests.
func DefaultMockConfig() MockConfig {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return MockConfig{
		Markets:      3,
		Platform:     domain.PlatformPolymarket,
		Start:        start,
		End:          start.Add(24 * time.Hour),
		Step:         5 * time.Minute,
		StartPrice:   0.5,
		Volatility:   0.01,
		BaseVolume:   10000,
		ResolveAtEnd: true,
		Seed:         1,
	}
}

// MockSource synthesises random-walk prices and scheduled resolutions.
// The walk is generated once per seed, so Reset replays identical events.
type MockSource struct {
	cfg    MockConfig
	events []domain.SimulationEvent
	pos    int
}

// NewMockSource generates the full synthetic stream up front.
func NewMockSource(cfg MockConfig) *MockSource {
	if cfg.Step <= 0 {
		cfg.Step = 5 * time.Minute
	}
	if cfg.Markets <= 0 {
		cfg.Markets = 1
	}
	if cfg.StartPrice <= 0 || cfg.StartPrice >= 1 {
		cfg.StartPrice = 0.5
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	prices := make([]float64, cfg.Markets)
	for i := range prices {
		prices[i] = cfg.StartPrice
	}

	var events []domain.SimulationEvent
	for ts := cfg.Start; !ts.After(cfg.End); ts = ts.Add(cfg.Step) {
		for i := 0; i < cfg.Markets; i++ {
			prices[i] += rng.NormFloat64() * cfg.Volatility
			if prices[i] < 0.01 {
				prices[i] = 0.01
			}
			if prices[i] > 0.99 {
				prices[i] = 0.99
			}
			volume := cfg.BaseVolume * (0.5 + rng.Float64())

			events = append(events, domain.MarketUpdateEvent{Market: domain.MarketSnapshot{
				MarketID:  mockMarketID(i),
				Platform:  cfg.Platform,
				Timestamp: ts,
				Question:  fmt.Sprintf("Will mock market %d resolve YES?", i),
				YesPrice:  round4(prices[i]),
				NoPrice:   round4(1 - prices[i]),
				Volume24h: volume,
				Liquidity: cfg.BaseVolume,
				Status:    domain.StatusActive,
			}})
		}
	}

	if cfg.ResolveAtEnd {
		resolveAt := cfg.End.Add(cfg.Step)
		for i := 0; i < cfg.Markets; i++ {
			outcome := domain.OutcomeNo
			if prices[i] >= 0.5 {
				outcome = domain.OutcomeYes
			}
			events = append(events, domain.ResolutionEvent{Resolution: domain.MarketResolution{
				MarketID:  mockMarketID(i),
				Platform:  cfg.Platform,
				Timestamp: resolveAt,
				Outcome:   outcome,
				Question:  fmt.Sprintf("Will mock market %d resolve YES?", i),
			}})
		}
	}

	return &MockSource{cfg: cfg, events: events}
}

// Next implements ports.EventSource.
func (m *MockSource) Next(_ context.Context) (domain.SimulationEvent, error) {
	if m.pos >= len(m.events) {
		return nil, io.EOF
	}
	ev := m.events[m.pos]
	m.pos++
	return ev, nil
}

// Reset implements ports.EventSource.
func (m *MockSource) Reset() error {
	m.pos = 0
	return nil
}

func mockMarketID(i int) string {
	return fmt.Sprintf("mock-%d", i)
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}
