package marketdata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predsim/internal/adapters/marketdata"
	"github.com/alejandrodnm/predsim/internal/domain"
)

func newTestClient(baseURL string) *marketdata.Client {
	return marketdata.NewClient(marketdata.ClientConfig{
		BaseURL:    baseURL,
		RatePerSec: 1000, // don't throttle tests
		Burst:      1000,
	})
}

func TestClient_Markets(t *testing.T) {
	var gotPlatform, gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/markets", r.URL.Path)
		gotPlatform = r.URL.Query().Get("platform")
		gotStatus = r.URL.Query().Get("status")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.MarketSnapshot{
			{MarketID: "m1", Platform: domain.PlatformPolymarket, YesPrice: 0.42, NoPrice: 0.58},
		})
	}))
	defer srv.Close()

	markets, err := newTestClient(srv.URL).Markets(context.Background(),
		domain.PlatformPolymarket, domain.StatusActive)

	require.NoError(t, err)
	assert.Equal(t, "polymarket", gotPlatform)
	assert.Equal(t, string(domain.StatusActive), gotStatus)
	require.Len(t, markets, 1)
	assert.Equal(t, "m1", markets[0].MarketID)
	assert.Equal(t, 0.42, markets[0].YesPrice)
}

func TestClient_MarketByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/markets/m1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.MarketSnapshot{MarketID: "m1", YesPrice: 0.42})
	}))
	defer srv.Close()

	m, err := newTestClient(srv.URL).Market(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", m.MarketID)
}

func TestClient_MarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Market(context.Background(), "ghost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClient_OrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/markets/m1/orderbook", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("depth"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.OrderBookSnapshot{
			MarketID: "m1",
			Bids:     []domain.OrderBookLevel{{Price: 0.48, Size: 100}},
			Asks:     []domain.OrderBookLevel{{Price: 0.52, Size: 80}},
		})
	}))
	defer srv.Close()

	book, err := newTestClient(srv.URL).OrderBook(context.Background(), "m1", 10)

	require.NoError(t, err)
	assert.Equal(t, 0.48, book.BestBid())
	assert.Equal(t, 0.52, book.BestAsk())
}

func TestClient_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.MarketSnapshot{{MarketID: "m1"}})
	}))
	defer srv.Close()

	markets, err := newTestClient(srv.URL).Markets(context.Background(), "", "")

	require.NoError(t, err)
	assert.Len(t, markets, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(srv.URL).Health(context.Background()))
}

func TestPoller_DeliversActiveMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.MarketSnapshot{
			{MarketID: "m1", Platform: domain.PlatformPolymarket, YesPrice: 0.42},
		})
	}))
	defer srv.Close()

	poller := marketdata.NewPoller(newTestClient(srv.URL),
		[]domain.Platform{domain.PlatformPolymarket}, time.Hour)

	got := make(chan domain.MarketUpdateEvent, 4)
	poller.OnUpdate(func(ev domain.MarketUpdateEvent) { got <- ev })

	require.NoError(t, poller.Connect(context.Background()))
	defer poller.Disconnect()

	select {
	case ev := <-got:
		assert.Equal(t, "m1", ev.Market.MarketID)
		assert.False(t, ev.Market.Timestamp.IsZero()) // stamped on arrival
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered by first poll")
	}
}

func TestPoller_ConnectRequiresCallback(t *testing.T) {
	poller := marketdata.NewPoller(newTestClient("http://localhost:0"), nil, time.Hour)

	err := poller.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no callback")
}
