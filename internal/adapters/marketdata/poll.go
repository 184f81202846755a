package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
	"github.com/alejandrodnm/predsim/internal/ports"
)

const defaultRefresh = 30 * time.Second

// Poller is a ports.DataProvider that polls the REST API on a fixed
// interval, for deployments without a WebSocket feed. A failed cycle is
// logged and retried on the next tick.
type Poller struct {
	client    *Client
	platforms []domain.Platform
	refresh   time.Duration
	cb        ports.UpdateCallback

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a polling provider on top of the REST client.
func NewPoller(client *Client, platforms []domain.Platform, refresh time.Duration) *Poller {
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return &Poller{client: client, platforms: platforms, refresh: refresh}
}

// Name implements ports.DataProvider.
func (p *Poller) Name() string { return "marketdata-poller" }

// OnUpdate implements ports.DataProvider. Must be called before Connect.
func (p *Poller) OnUpdate(cb ports.UpdateCallback) {
	p.cb = cb
}

// Connect implements ports.DataProvider. The first poll runs immediately
// so strategies have prices before the first refresh tick.
func (p *Poller) Connect(ctx context.Context) error {
	if p.cb == nil {
		return fmt.Errorf("marketdata.Poller.Connect: no callback registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.run(runCtx)
	return nil
}

// Disconnect implements ports.DataProvider.
func (p *Poller) Disconnect() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.poll(ctx)
	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	platforms := p.platforms
	if len(platforms) == 0 {
		platforms = []domain.Platform{""}
	}

	for _, platform := range platforms {
		markets, err := p.client.Markets(ctx, platform, domain.StatusActive)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("marketdata: poll cycle failed",
				"platform", platform, "error", err)
			continue
		}
		for _, m := range markets {
			if m.Timestamp.IsZero() {
				m.Timestamp = time.Now().UTC()
			}
			p.cb(domain.MarketUpdateEvent{Market: m})
		}
	}
}
