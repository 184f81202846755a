// Package marketdata talks to an external market-data service that exposes
// venue snapshots over HTTP and WebSocket. The engine core never builds
// these URLs itself; everything passes through this adapter.
package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/predsim/internal/domain"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRatePerSec = 10
	defaultBurst      = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// ClientConfig shapes the REST client.
type ClientConfig struct {
	BaseURL    string  `yaml:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// Client is the REST client with rate limiting and retries.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a Client for the given base URL.
func NewClient(cfg ClientConfig) *Client {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(defaultTimeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(baseRetryWait).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		}).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}
}

// Markets fetches current snapshots, optionally filtered by platform and
// status. Empty filters fetch everything.
func (c *Client) Markets(ctx context.Context, platform domain.Platform, status domain.MarketStatus) ([]domain.MarketSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("marketdata.Client.Markets: rate limiter: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if platform != "" {
		req.SetQueryParam("platform", string(platform))
	}
	if status != "" {
		req.SetQueryParam("status", string(status))
	}

	var result []domain.MarketSnapshot
	resp, err := req.SetResult(&result).Get("/api/markets")
	if err != nil {
		return nil, fmt.Errorf("marketdata.Client.Markets: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("marketdata.Client.Markets: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// Market fetches one market snapshot by ID.
func (c *Client) Market(ctx context.Context, marketID string) (domain.MarketSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("marketdata.Client.Market: rate limiter: %w", err)
	}

	var result domain.MarketSnapshot
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("id", marketID).
		Get("/api/markets/{id}")
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("marketdata.Client.Market: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.MarketSnapshot{}, fmt.Errorf("marketdata.Client.Market: %q not found", marketID)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.MarketSnapshot{}, fmt.Errorf("marketdata.Client.Market: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// OrderBook fetches the L2 book for a market, up to depth levels per side.
// depth <= 0 requests the service default.
func (c *Client) OrderBook(ctx context.Context, marketID string, depth int) (domain.OrderBookSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("marketdata.Client.OrderBook: rate limiter: %w", err)
	}

	req := c.http.R().SetContext(ctx).SetPathParam("id", marketID)
	if depth > 0 {
		req.SetQueryParam("depth", fmt.Sprintf("%d", depth))
	}

	var result domain.OrderBookSnapshot
	resp, err := req.SetResult(&result).Get("/api/markets/{id}/orderbook")
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("marketdata.Client.OrderBook: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.OrderBookSnapshot{}, fmt.Errorf("marketdata.Client.OrderBook: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("marketdata.Client.Health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("marketdata.Client.Health: status %d", resp.StatusCode())
	}
	return nil
}
