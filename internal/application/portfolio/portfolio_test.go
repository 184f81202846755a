package portfolio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predsim/internal/application/portfolio"
	"github.com/alejandrodnm/predsim/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func buy(marketID string, side domain.OrderSide, size, price, fees float64) domain.TradeEvent {
	return domain.TradeEvent{
		TradeID: "t-" + marketID, MarketID: marketID,
		Platform: domain.PlatformPolymarket, Timestamp: t0,
		Side: side, Price: price, Size: size, Fees: fees, IsTaker: true,
	}
}

func TestExecuteTrade_WinningYesResolution(t *testing.T) {
	pf := portfolio.New(10000)

	ok := pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0))
	require.True(t, ok)
	assert.InDelta(t, 9960, pf.Cash(), 1e-9)

	pos, held := pf.Position("m1")
	require.True(t, held)
	assert.InDelta(t, 100, pos.YesShares, 1e-9)
	assert.InDelta(t, 0.40, pos.YesAvgPrice, 1e-9)
	assert.InDelta(t, 40, pos.TotalCostBasis(), 1e-9)

	pnl := pf.ResolvePosition(domain.MarketResolution{
		MarketID: "m1", Platform: domain.PlatformPolymarket,
		Timestamp: t0.Add(time.Hour), Outcome: domain.OutcomeYes,
	})

	assert.InDelta(t, 60, pnl, 1e-9)
	assert.InDelta(t, 10060, pf.Cash(), 1e-9)
	assert.Zero(t, pf.OpenPositions())

	require.Len(t, pf.Resolutions(), 1)
	rec := pf.Resolutions()[0]
	assert.InDelta(t, 100, rec.Payout, 1e-9)
	assert.InDelta(t, 60, rec.PnL, 1e-9)
}

func TestExecuteTrade_InsufficientFundsNoMutation(t *testing.T) {
	pf := portfolio.New(10)

	ok := pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0))

	assert.False(t, ok)
	assert.InDelta(t, 10, pf.Cash(), 1e-9)
	assert.Zero(t, pf.OpenPositions())
	assert.Empty(t, pf.Trades())
}

func TestExecuteTrade_FeesIncludedInCost(t *testing.T) {
	pf := portfolio.New(41)

	// 100 × 0.40 + 1.50 fees = 41.50 > 41 cash
	ok := pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 1.50))
	assert.False(t, ok)

	ok = pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0.50))
	require.True(t, ok)
	assert.InDelta(t, 0.50, pf.Cash(), 1e-9)

	pos, _ := pf.Position("m1")
	assert.InDelta(t, 40.50, pos.TotalCostBasis(), 1e-9)
}

func TestExecuteTrade_SellReducesBasisProportionally(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))

	sell := buy("m1", domain.SellYes, 40, 0.60, 0)
	require.True(t, pf.ExecuteTrade(sell))

	// 9960 + 40×0.60
	assert.InDelta(t, 9984, pf.Cash(), 1e-9)

	pos, held := pf.Position("m1")
	require.True(t, held)
	assert.InDelta(t, 60, pos.YesShares, 1e-9)
	// basis scaled by the unsold fraction: 40 × 0.6 = 24
	assert.InDelta(t, 24, pos.TotalCostBasis(), 1e-9)
	assert.InDelta(t, 0.40, pos.YesAvgPrice, 1e-9)
}

func TestExecuteTrade_SellFullPositionDeletesIt(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))
	require.True(t, pf.ExecuteTrade(buy("m1", domain.SellYes, 100, 0.55, 0)))

	assert.Zero(t, pf.OpenPositions())
	assert.InDelta(t, 10015, pf.Cash(), 1e-9)
}

func TestExecuteTrade_OversellFloorsAtZero(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 50, 0.50, 0)))
	require.True(t, pf.ExecuteTrade(buy("m1", domain.SellYes, 80, 0.50, 0)))

	// the sell credits its full notional but shares floor at zero
	assert.Zero(t, pf.OpenPositions())
}

func TestExecuteTrade_RejectsMalformed(t *testing.T) {
	pf := portfolio.New(10000)

	assert.False(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 0, 0.40, 0)))
	assert.False(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 10, 1.40, 0)))
	assert.False(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 10, -0.1, 0)))
}

func TestDualSidePosition(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.60, 0)))
	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyNo, 50, 0.45, 0)))

	pos, held := pf.Position("m1")
	require.True(t, held)
	assert.InDelta(t, 100, pos.YesShares, 1e-9)
	assert.InDelta(t, 50, pos.NoShares, 1e-9)
	assert.InDelta(t, 82.5, pos.TotalCostBasis(), 1e-9)
	assert.InDelta(t, 50, pos.NetShares(), 1e-9)

	// yes at 0.70: value = 100×0.70 + 50×0.30 = 85
	assert.InDelta(t, 85, pos.MarketValue(0.70), 1e-9)
	assert.InDelta(t, 2.5, pos.UnrealizedPnL(0.70), 1e-9)
}

func TestAveragePriceOnRepeatedBuys(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))
	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.60, 0)))

	pos, _ := pf.Position("m1")
	assert.InDelta(t, 200, pos.YesShares, 1e-9)
	assert.InDelta(t, 0.50, pos.YesAvgPrice, 1e-9)
}

func TestResolvePosition_NoOutcome(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))

	pnl := pf.ResolvePosition(domain.MarketResolution{
		MarketID: "m1", Outcome: domain.OutcomeNo, Timestamp: t0,
	})

	// YES shares worthless: lose the whole 40 basis
	assert.InDelta(t, -40, pnl, 1e-9)
	assert.InDelta(t, 9960, pf.Cash(), 1e-9)
}

func TestResolvePosition_CancelledRefundsBasis(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 2)))

	pnl := pf.ResolvePosition(domain.MarketResolution{
		MarketID: "m1", Outcome: domain.OutcomeCancelled, Timestamp: t0,
	})

	assert.InDelta(t, 0, pnl, 1e-9)
	assert.InDelta(t, 10000, pf.Cash(), 1e-9)
}

func TestResolvePosition_AmbiguousPaysNothing(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))

	pnl := pf.ResolvePosition(domain.MarketResolution{
		MarketID: "m1", Outcome: domain.OutcomeAmbiguous, Timestamp: t0,
	})

	assert.InDelta(t, -40, pnl, 1e-9)
	assert.InDelta(t, 9960, pf.Cash(), 1e-9)
}

func TestResolvePosition_UntrackedMarketIsNoOp(t *testing.T) {
	pf := portfolio.New(10000)

	pnl := pf.ResolvePosition(domain.MarketResolution{
		MarketID: "ghost", Outcome: domain.OutcomeYes, Timestamp: t0,
	})

	assert.Zero(t, pnl)
	assert.InDelta(t, 10000, pf.Cash(), 1e-9)
	assert.Empty(t, pf.Resolutions())
}

func TestValue_FallsBackToAvgPrice(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))

	// no current price for m1: mark at the 0.40 average
	assert.InDelta(t, 10000, pf.Value(nil), 1e-9)
	// with a live price
	assert.InDelta(t, 10010, pf.Value(map[string]float64{"m1": 0.50}), 1e-9)
}

func TestRecordEquity_TracksPeakAndDrawdown(t *testing.T) {
	pf := portfolio.New(10000)

	require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))

	pf.RecordEquity(t0, map[string]float64{"m1": 0.40})
	pf.RecordEquity(t0.Add(time.Hour), map[string]float64{"m1": 0.60})
	pf.RecordEquity(t0.Add(2*time.Hour), map[string]float64{"m1": 0.30})

	require.Len(t, pf.EquityCurve(), 3)
	assert.InDelta(t, 10020, pf.PeakEquity(), 1e-9)
	// equity dropped from the 10020 peak to 9990
	assert.InDelta(t, 30.0/10020, pf.MaxDrawdownPct(), 1e-9)
}

func TestReset_ReplayIsDeterministic(t *testing.T) {
	pf := portfolio.New(10000)

	run := func() (float64, int) {
		require.True(t, pf.ExecuteTrade(buy("m1", domain.BuyYes, 100, 0.40, 0)))
		pf.ResolvePosition(domain.MarketResolution{
			MarketID: "m1", Outcome: domain.OutcomeYes, Timestamp: t0,
		})
		return pf.Cash(), len(pf.Trades())
	}

	cash1, trades1 := run()
	pf.Reset()
	assert.InDelta(t, 10000, pf.Cash(), 1e-9)
	assert.Empty(t, pf.Trades())
	assert.Empty(t, pf.Resolutions())

	cash2, trades2 := run()
	assert.Equal(t, cash1, cash2)
	assert.Equal(t, trades1, trades2)
}
