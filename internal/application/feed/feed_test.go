package feed_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predsim/internal/application/feed"
	"github.com/alejandrodnm/predsim/internal/domain"
)

func drain(t *testing.T, src interface {
	Next(ctx context.Context) (domain.SimulationEvent, error)
}) []domain.SimulationEvent {
	t.Helper()
	var events []domain.SimulationEvent
	for {
		ev, err := src.Next(context.Background())
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestMockSource_EventCountAndOrdering(t *testing.T) {
	cfg := feed.DefaultMockConfig()
	src := feed.NewMockSource(cfg)

	events := drain(t, src)

	// 24h at 5m steps inclusive of both ends: 289 ticks × 3 markets,
	// plus one resolution per market
	steps := int(cfg.End.Sub(cfg.Start)/cfg.Step) + 1
	require.Len(t, events, steps*cfg.Markets+cfg.Markets)

	last := time.Time{}
	for _, ev := range events {
		assert.False(t, ev.Time().Before(last))
		last = ev.Time()
	}
}

func TestMockSource_ResolvesEveryMarketAtEnd(t *testing.T) {
	cfg := feed.DefaultMockConfig()
	src := feed.NewMockSource(cfg)

	events := drain(t, src)

	resolved := map[string]domain.ResolutionOutcome{}
	for _, ev := range events {
		if res, ok := ev.(domain.ResolutionEvent); ok {
			resolved[res.Resolution.MarketID] = res.Resolution.Outcome
			assert.Equal(t, cfg.End.Add(cfg.Step), res.Resolution.Timestamp)
		}
	}

	require.Len(t, resolved, cfg.Markets)
	for _, outcome := range resolved {
		assert.Contains(t, []domain.ResolutionOutcome{domain.OutcomeYes, domain.OutcomeNo}, outcome)
	}
}

func TestMockSource_PricesStayInRange(t *testing.T) {
	cfg := feed.DefaultMockConfig()
	cfg.Volatility = 0.2 // violent walk to hit the clamps
	src := feed.NewMockSource(cfg)

	for _, ev := range drain(t, src) {
		if m, ok := ev.(domain.MarketUpdateEvent); ok {
			assert.GreaterOrEqual(t, m.Market.YesPrice, 0.01)
			assert.LessOrEqual(t, m.Market.YesPrice, 0.99)
		}
	}
}

func TestMockSource_SameSeedSameStream(t *testing.T) {
	cfg := feed.DefaultMockConfig()

	a := drain(t, feed.NewMockSource(cfg))
	b := drain(t, feed.NewMockSource(cfg))
	assert.Equal(t, a, b)

	cfg.Seed = 2
	c := drain(t, feed.NewMockSource(cfg))
	assert.NotEqual(t, a, c)
}

func TestMockSource_ResetReplaysIdentically(t *testing.T) {
	src := feed.NewMockSource(feed.DefaultMockConfig())

	first := drain(t, src)
	_, err := src.Next(context.Background())
	assert.Equal(t, io.EOF, err)

	require.NoError(t, src.Reset())
	second := drain(t, src)

	assert.Equal(t, first, second)
}

// stubStore serves canned data and counts reads.
type stubStore struct {
	snapshots   []domain.MarketSnapshot
	books       []domain.OrderBookSnapshot
	resolutions []domain.MarketResolution
	reads       int
}

func (s *stubStore) SaveSnapshots(context.Context, []domain.MarketSnapshot) error      { return nil }
func (s *stubStore) SaveOrderBooks(context.Context, []domain.OrderBookSnapshot) error  { return nil }
func (s *stubStore) SaveTrades(context.Context, []domain.TradeEvent) error             { return nil }
func (s *stubStore) SaveResolutions(context.Context, []domain.MarketResolution) error  { return nil }
func (s *stubStore) Close() error                                                      { return nil }

func (s *stubStore) MarketSnapshots(context.Context, string, time.Time, time.Time) ([]domain.MarketSnapshot, error) {
	return s.snapshots, nil
}

func (s *stubStore) SnapshotsBetween(context.Context, time.Time, time.Time, []domain.Platform) ([]domain.MarketSnapshot, error) {
	s.reads++
	return s.snapshots, nil
}

func (s *stubStore) OrderBooksBetween(context.Context, time.Time, time.Time, []domain.Platform) ([]domain.OrderBookSnapshot, error) {
	return s.books, nil
}

func (s *stubStore) ResolutionsBetween(context.Context, time.Time, time.Time, []domain.Platform) ([]domain.MarketResolution, error) {
	return s.resolutions, nil
}

func TestReplaySource_MergesAndSortsStreams(t *testing.T) {
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &stubStore{
		snapshots: []domain.MarketSnapshot{
			{MarketID: "m1", Timestamp: base.Add(2 * time.Hour), YesPrice: 0.6},
			{MarketID: "m1", Timestamp: base, YesPrice: 0.5},
		},
		books: []domain.OrderBookSnapshot{
			{MarketID: "m1", Timestamp: base.Add(time.Hour)},
		},
		resolutions: []domain.MarketResolution{
			{MarketID: "m1", Timestamp: base.Add(2 * time.Hour), Outcome: domain.OutcomeYes},
		},
	}

	src := feed.NewReplaySource(store, feed.ReplayConfig{Start: base, End: base.Add(3 * time.Hour)})
	events := drain(t, src)

	require.Len(t, events, 4)
	assert.Equal(t, domain.EventMarketUpdate, events[0].Kind())
	assert.Equal(t, domain.EventOrderBookUpdate, events[1].Kind())
	// snapshot and resolution share a timestamp: the price comes first
	assert.Equal(t, domain.EventMarketUpdate, events[2].Kind())
	assert.Equal(t, domain.EventResolution, events[3].Kind())
}

func TestReplaySource_ResetDoesNotReload(t *testing.T) {
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &stubStore{
		snapshots: []domain.MarketSnapshot{{MarketID: "m1", Timestamp: base, YesPrice: 0.5}},
	}

	src := feed.NewReplaySource(store, feed.ReplayConfig{Start: base, End: base.Add(time.Hour)})

	first := drain(t, src)
	require.NoError(t, src.Reset())
	second := drain(t, src)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.reads)
}

func TestReplaySource_EmptyStoreIsImmediatelyExhausted(t *testing.T) {
	src := feed.NewReplaySource(&stubStore{}, feed.ReplayConfig{})

	_, err := src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}
