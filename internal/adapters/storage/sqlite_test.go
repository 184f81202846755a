package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predsim/internal/adapters/storage"
	"github.com/alejandrodnm/predsim/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshots_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	resDate := t0.Add(30 * 24 * time.Hour)
	in := []domain.MarketSnapshot{
		{
			MarketID: "m1", Platform: domain.PlatformPolymarket, Timestamp: t0,
			Question: "Will it rain?", YesPrice: 0.40, NoPrice: 0.60,
			Volume24h: 1234.5, Liquidity: 9999, ResolutionDate: &resDate,
			Status: domain.StatusActive,
			Tags:   []string{"weather", "daily"},
			Metadata: map[string]string{"source": "test"},
		},
		{
			MarketID: "m2", Platform: domain.PlatformKalshi, Timestamp: t0.Add(time.Hour),
			YesPrice: 0.55, NoPrice: 0.45, Status: domain.StatusActive,
		},
	}
	require.NoError(t, store.SaveSnapshots(ctx, in))

	out, err := store.SnapshotsBetween(ctx, t0, t0.Add(2*time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	got := out[0]
	assert.Equal(t, "m1", got.MarketID)
	assert.Equal(t, domain.PlatformPolymarket, got.Platform)
	assert.True(t, got.Timestamp.Equal(t0))
	assert.Equal(t, "Will it rain?", got.Question)
	assert.Equal(t, 0.40, got.YesPrice)
	assert.Equal(t, []string{"weather", "daily"}, got.Tags)
	assert.Equal(t, map[string]string{"source": "test"}, got.Metadata)
	require.NotNil(t, got.ResolutionDate)
	assert.True(t, got.ResolutionDate.Equal(resDate))

	// bare snapshot round-trips with nil optionals
	assert.Nil(t, out[1].ResolutionDate)
	assert.Empty(t, out[1].Tags)
}

func TestSnapshots_PlatformFilterAndWindow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshots(ctx, []domain.MarketSnapshot{
		{MarketID: "p1", Platform: domain.PlatformPolymarket, Timestamp: t0, YesPrice: 0.5, NoPrice: 0.5, Status: domain.StatusActive},
		{MarketID: "k1", Platform: domain.PlatformKalshi, Timestamp: t0, YesPrice: 0.5, NoPrice: 0.5, Status: domain.StatusActive},
		{MarketID: "p2", Platform: domain.PlatformPolymarket, Timestamp: t0.Add(48 * time.Hour), YesPrice: 0.5, NoPrice: 0.5, Status: domain.StatusActive},
	}))

	out, err := store.SnapshotsBetween(ctx, t0, t0.Add(time.Hour), []domain.Platform{domain.PlatformPolymarket})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].MarketID)

	both, err := store.SnapshotsBetween(ctx, t0, t0.Add(time.Hour),
		[]domain.Platform{domain.PlatformPolymarket, domain.PlatformKalshi})
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestMarketSnapshots_OrderedByTime(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// inserted newest-first, read back oldest-first
	require.NoError(t, store.SaveSnapshots(ctx, []domain.MarketSnapshot{
		{MarketID: "m1", Platform: domain.PlatformPolymarket, Timestamp: t0.Add(2 * time.Hour), YesPrice: 0.6, NoPrice: 0.4, Status: domain.StatusActive},
		{MarketID: "m1", Platform: domain.PlatformPolymarket, Timestamp: t0, YesPrice: 0.5, NoPrice: 0.5, Status: domain.StatusActive},
		{MarketID: "other", Platform: domain.PlatformPolymarket, Timestamp: t0, YesPrice: 0.9, NoPrice: 0.1, Status: domain.StatusActive},
	}))

	out, err := store.MarketSnapshots(ctx, "m1", t0, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0.5, out[0].YesPrice)
	assert.Equal(t, 0.6, out[1].YesPrice)
}

func TestOrderBooks_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	in := []domain.OrderBookSnapshot{{
		MarketID: "m1", Platform: domain.PlatformPolymarket, Timestamp: t0,
		Bids: []domain.OrderBookLevel{{Price: 0.48, Size: 100}, {Price: 0.46, Size: 250}},
		Asks: []domain.OrderBookLevel{{Price: 0.52, Size: 80}},
	}}
	require.NoError(t, store.SaveOrderBooks(ctx, in))

	out, err := store.OrderBooksBetween(ctx, t0, t0.Add(time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].Bids, out[0].Bids)
	assert.Equal(t, in[0].Asks, out[0].Asks)
	assert.True(t, out[0].Timestamp.Equal(t0))
}

func TestTrades_DuplicateIDsIgnored(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	trade := domain.TradeEvent{
		TradeID: "t1", MarketID: "m1", Platform: domain.PlatformPolymarket,
		Timestamp: t0, Side: domain.BuyYes, Price: 0.40, Size: 100,
		IsTaker: true, Fees: 0.80, Strategy: "momentum",
	}
	require.NoError(t, store.SaveTrades(ctx, []domain.TradeEvent{trade}))
	require.NoError(t, store.SaveTrades(ctx, []domain.TradeEvent{trade})) // replayed batch

	out, err := store.Trades(ctx, t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.BuyYes, out[0].Side)
	assert.True(t, out[0].IsTaker)
	assert.Equal(t, "momentum", out[0].Strategy)
	assert.Equal(t, 0.80, out[0].Fees)
}

func TestResolutions_RoundTripWithFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResolutions(ctx, []domain.MarketResolution{
		{MarketID: "m1", Platform: domain.PlatformPolymarket, Timestamp: t0, Outcome: domain.OutcomeYes, Question: "Will it rain?"},
		{MarketID: "m2", Platform: domain.PlatformKalshi, Timestamp: t0, Outcome: domain.OutcomeNo},
	}))

	out, err := store.ResolutionsBetween(ctx, t0, t0, []domain.Platform{domain.PlatformKalshi})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m2", out[0].MarketID)
	assert.Equal(t, domain.OutcomeNo, out[0].Outcome)

	all, err := store.ResolutionsBetween(ctx, t0, t0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEmptyWindowReturnsNothing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	out, err := store.SnapshotsBetween(ctx, t0, t0.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
