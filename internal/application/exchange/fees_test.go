package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/predsim/internal/application/exchange"
	"github.com/alejandrodnm/predsim/internal/domain"
)

func TestPlatformFees_PolymarketTakerNotional(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	// 2% of 100 × 0.40
	assert.InDelta(t, 0.80, m.Fees(domain.PlatformPolymarket, 100, 0.40, false), 1e-9)
}

func TestPlatformFees_KalshiPerContract(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	fee := m.Fees(domain.PlatformKalshi, 100, 0.40, false)
	assert.InDelta(t, 7.00, fee, 1e-9)
	// capped at 7¢ a contract regardless of price
	assert.LessOrEqual(t, m.Fees(domain.PlatformKalshi, 100, 0.95, false), 0.07*100)
}

func TestPlatformFees_ManifoldIsFree(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	assert.Zero(t, m.Fees(domain.PlatformManifold, 1000, 0.50, false))
}

func TestPlatformFees_MakersPayNothing(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	assert.Zero(t, m.Fees(domain.PlatformPolymarket, 100, 0.40, true))
	assert.Zero(t, m.Fees(domain.PlatformKalshi, 100, 0.40, true))
}

func TestPlatformFees_UnknownPlatform(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	assert.Zero(t, m.Fees(domain.Platform("nadex"), 100, 0.40, false))
}

func TestCustomFeeModel_OverridesOnePlatform(t *testing.T) {
	m := exchange.NewCustomFeeModel(map[domain.Platform]exchange.FeeSchedule{
		domain.PlatformPolymarket: {TakerNotionalRate: 0.01, MakerNotionalRate: 0.005},
	})

	assert.InDelta(t, 0.40, m.Fees(domain.PlatformPolymarket, 100, 0.40, false), 1e-9)
	assert.InDelta(t, 0.20, m.Fees(domain.PlatformPolymarket, 100, 0.40, true), 1e-9)
	// untouched platforms keep the stock schedule
	assert.InDelta(t, 7.00, m.Fees(domain.PlatformKalshi, 100, 0.40, false), 1e-9)
}

func TestPlatformFees_NoFloatDust(t *testing.T) {
	m := exchange.NewPlatformFeeModel()

	// 0.1 + 0.2 style sums round clean at 6 decimal places
	assert.Equal(t, 0.000006, m.Fees(domain.PlatformPolymarket, 0.001, 0.30, false))
}
