package exchange

import "math/rand"

// LatencyConfig parameterizes the simulated order round-trip latency.
type LatencyConfig struct {
	MeanMs float64 `yaml:"mean_ms"`
	StdMs  float64 `yaml:"std_ms"`
	MinMs  float64 `yaml:"min_ms"`
	MaxMs  float64 `yaml:"max_ms"`
	Seed   int64   `yaml:"random_seed"` // 0 seeds from the clock
}

// DefaultLatencyConfig approximates a venue API round trip.
func DefaultLatencyConfig() LatencyConfig {
	return LatencyConfig{MeanMs: 120, StdMs: 40, MinMs: 20, MaxMs: 500}
}

// LatencyModel samples normally distributed latencies clamped to
// [MinMs, MaxMs].
type LatencyModel struct {
	cfg LatencyConfig
	rng *rand.Rand
}

// NewLatencyModel creates a latency model.
func NewLatencyModel(cfg LatencyConfig) *LatencyModel {
	return &LatencyModel{cfg: cfg, rng: newRand(cfg.Seed)}
}

// Sample draws one latency in milliseconds.
func (l *LatencyModel) Sample() float64 {
	ms := l.rng.NormFloat64()*l.cfg.StdMs + l.cfg.MeanMs
	if ms < l.cfg.MinMs {
		ms = l.cfg.MinMs
	}
	if ms > l.cfg.MaxMs {
		ms = l.cfg.MaxMs
	}
	return ms
}
