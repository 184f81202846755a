package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/predsim/internal/application/portfolio"
	"github.com/alejandrodnm/predsim/internal/domain"
)

// ExecutionStats aggregates fill quality over a run.
type ExecutionStats struct {
	OrdersSubmitted int     `json:"orders_submitted"`
	OrdersFilled    int     `json:"orders_filled"`
	OrdersPartial   int     `json:"orders_partial"`
	OrdersRejected  int     `json:"orders_rejected"`
	TotalFees       float64 `json:"total_fees"`
	TotalVolume     float64 `json:"total_volume"`
	AvgSlippage     float64 `json:"avg_slippage"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}

// Breakdown is the per-strategy / per-platform trade aggregate.
type Breakdown struct {
	Trades int     `json:"trades"`
	Volume float64 `json:"volume"`
	Fees   float64 `json:"fees"`
}

// Results is the serialisable artefact of a simulation run.
type Results struct {
	Mode           string                       `json:"mode"`
	StartDate      time.Time                    `json:"start_date"`
	EndDate        time.Time                    `json:"end_date"`
	InitialCapital float64                      `json:"initial_capital"`
	FinalValue     float64                      `json:"final_value"`
	TotalReturnPct float64                      `json:"total_return_pct"`
	Metrics        portfolio.Metrics            `json:"metrics"`
	Execution      ExecutionStats               `json:"execution"`
	ByStrategy     map[string]*Breakdown        `json:"by_strategy"`
	ByPlatform     map[string]*Breakdown        `json:"by_platform"`
	Trades         []domain.TradeEvent          `json:"trades"`
	Resolutions    []portfolio.ResolutionRecord `json:"resolutions"`
	EquityCurve    []portfolio.EquityPoint      `json:"equity_curve"`
}

func newResults(mode string, initialCapital float64) *Results {
	return &Results{
		Mode:           mode,
		InitialCapital: initialCapital,
		ByStrategy:     make(map[string]*Breakdown),
		ByPlatform:     make(map[string]*Breakdown),
	}
}

func (r *Results) recordTrade(trade domain.TradeEvent) {
	for _, key := range []struct {
		m map[string]*Breakdown
		k string
	}{
		{r.ByStrategy, trade.Strategy},
		{r.ByPlatform, string(trade.Platform)},
	} {
		b, ok := key.m[key.k]
		if !ok {
			b = &Breakdown{}
			key.m[key.k] = b
		}
		b.Trades++
		b.Volume += trade.Notional()
		b.Fees += trade.Fees
	}
}

// WriteJSON writes the artefact to path, pretty-printed.
func (r *Results) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("engine.Results.WriteJSON: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine.Results.WriteJSON: write %q: %w", path, err)
	}
	return nil
}
