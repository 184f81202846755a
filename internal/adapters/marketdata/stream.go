package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/predsim/internal/domain"
	"github.com/alejandrodnm/predsim/internal/ports"
)

const (
	readTimeout      = 90 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 50 * time.Second
	maxReconnectWait = 30 * time.Second
)

// StreamConfig shapes the WebSocket provider.
type StreamConfig struct {
	URL       string            `yaml:"url"`
	Platforms []domain.Platform `yaml:"platforms"`
}

// streamMessage is the wire format of one update frame.
type streamMessage struct {
	Type   string                `json:"type"`
	Market domain.MarketSnapshot `json:"market"`
}

// Stream is a ports.DataProvider that receives market snapshots over a
// WebSocket. It reconnects with exponential backoff (1s doubling to 30s)
// and never stops the engine: a dead connection just means no updates
// until the next successful dial.
type Stream struct {
	cfg StreamConfig
	cb  ports.UpdateCallback

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStream creates a WebSocket provider.
func NewStream(cfg StreamConfig) *Stream {
	return &Stream{cfg: cfg}
}

// Name implements ports.DataProvider.
func (s *Stream) Name() string { return "marketdata-stream" }

// OnUpdate implements ports.DataProvider. Must be called before Connect.
func (s *Stream) OnUpdate(cb ports.UpdateCallback) {
	s.cb = cb
}

// Connect implements ports.DataProvider. It dials once to validate the URL,
// then keeps the read loop alive in the background until Disconnect.
func (s *Stream) Connect(ctx context.Context) error {
	if s.cb == nil {
		return fmt.Errorf("marketdata.Stream.Connect: no callback registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	conn, err := s.dial(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("marketdata.Stream.Connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx, conn)
	return nil
}

// Disconnect implements ports.DataProvider.
func (s *Stream) Disconnect() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// run reads frames and redials on failure until the context dies.
func (s *Stream) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	backoff := time.Second

	for {
		if conn != nil {
			err := s.readLoop(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			slog.Warn("marketdata: stream disconnected, reconnecting",
				"error", err, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}

		next, err := s.dial(ctx)
		if err != nil {
			slog.Warn("marketdata: stream redial failed", "error", err)
			conn = nil
			continue
		}
		backoff = time.Second
		conn = next

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
	}
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", s.cfg.URL, err)
	}

	if len(s.cfg.Platforms) > 0 {
		sub := map[string]any{"type": "subscribe", "platforms": s.cfg.Platforms}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(sub); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}
	return conn, nil
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	go s.pingLoop(ctx, conn)

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("marketdata: stream frame decode failed", "error", err)
			continue
		}
		if msg.Type != "market_update" {
			continue
		}
		if msg.Market.Timestamp.IsZero() {
			msg.Market.Timestamp = time.Now().UTC()
		}
		s.cb(domain.MarketUpdateEvent{Market: msg.Market})
	}
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
