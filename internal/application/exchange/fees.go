package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// FeeModel computes the fee for a fill.
type FeeModel interface {
	Fees(platform domain.Platform, size, price float64, isMaker bool) float64
}

// FeeSchedule is one platform's fee structure. NotionalRate applies to
// size·price; PerContractRate applies to size alone, capped per contract
// at PerContractCap.
type FeeSchedule struct {
	TakerNotionalRate float64 `yaml:"taker_notional_rate"`
	MakerNotionalRate float64 `yaml:"maker_notional_rate"`
	PerContractRate   float64 `yaml:"per_contract_rate"`
	PerContractCap    float64 `yaml:"per_contract_cap"`
}

// PlatformFeeModel holds a static per-platform schedule. Fee math runs on
// decimals so cent-denominated schedules don't accumulate float dust.
type PlatformFeeModel struct {
	schedules map[domain.Platform]FeeSchedule
}

// NewPlatformFeeModel returns the standard schedule:
// polymarket 2% taker on notional, kalshi 7¢/contract taker capped at 7¢,
// manifold free. Makers pay nothing anywhere.
func NewPlatformFeeModel() *PlatformFeeModel {
	return &PlatformFeeModel{schedules: map[domain.Platform]FeeSchedule{
		domain.PlatformPolymarket: {TakerNotionalRate: 0.02},
		domain.PlatformKalshi:     {PerContractRate: 0.07, PerContractCap: 0.07},
		domain.PlatformManifold:   {},
	}}
}

// NewCustomFeeModel overrides the standard schedule for the given platforms.
func NewCustomFeeModel(overrides map[domain.Platform]FeeSchedule) *PlatformFeeModel {
	m := NewPlatformFeeModel()
	for platform, sched := range overrides {
		m.schedules[platform] = sched
	}
	return m
}

// Fees implements FeeModel.
func (m *PlatformFeeModel) Fees(platform domain.Platform, size, price float64, isMaker bool) float64 {
	sched, ok := m.schedules[platform]
	if !ok {
		return 0
	}

	dSize := decimal.NewFromFloat(size)
	fee := decimal.Zero

	notionalRate := sched.TakerNotionalRate
	if isMaker {
		notionalRate = sched.MakerNotionalRate
	}
	if notionalRate > 0 {
		notional := dSize.Mul(decimal.NewFromFloat(price))
		fee = fee.Add(notional.Mul(decimal.NewFromFloat(notionalRate)))
	}

	if sched.PerContractRate > 0 && !isMaker {
		rate := sched.PerContractRate
		if sched.PerContractCap > 0 && rate > sched.PerContractCap {
			rate = sched.PerContractCap
		}
		fee = fee.Add(dSize.Mul(decimal.NewFromFloat(rate)))
	}

	f, _ := fee.Round(6).Float64()
	return f
}
