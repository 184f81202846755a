package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// DataStore persists historical market data and reads it back in
// chronological order for backtest replay. A single writer may append
// out-of-band, but only before a run starts.
type DataStore interface {
	SaveSnapshots(ctx context.Context, snapshots []domain.MarketSnapshot) error
	SaveOrderBooks(ctx context.Context, books []domain.OrderBookSnapshot) error
	SaveTrades(ctx context.Context, trades []domain.TradeEvent) error
	SaveResolutions(ctx context.Context, resolutions []domain.MarketResolution) error

	// MarketSnapshots returns the snapshots of one market inside [from, to],
	// ordered by timestamp.
	MarketSnapshots(ctx context.Context, marketID string, from, to time.Time) ([]domain.MarketSnapshot, error)

	// SnapshotsBetween returns all snapshots inside [from, to] for the given
	// platforms (all platforms when empty), ordered by timestamp.
	SnapshotsBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.MarketSnapshot, error)

	// OrderBooksBetween mirrors SnapshotsBetween for book snapshots.
	OrderBooksBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.OrderBookSnapshot, error)

	// ResolutionsBetween mirrors SnapshotsBetween for resolutions.
	ResolutionsBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.MarketResolution, error)

	// Close releases the underlying handle.
	Close() error
}
