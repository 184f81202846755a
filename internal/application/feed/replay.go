package feed

// Historical replay: loads snapshots, books and resolutions from the data
// store and yields them as one merged chronological stream. Events sharing
// a timestamp come out market update first, then book update, then
// resolution, so a strategy always sees prices before the market dies.

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
	"github.com/alejandrodnm/predsim/internal/ports"
)

// ReplayConfig bounds and filters the replayed stream.
type ReplayConfig struct {
	Start     time.Time
	End       time.Time
	Platforms []domain.Platform
}

// ReplaySource is an EventSource backed by a DataStore.
type ReplaySource struct {
	store  ports.DataStore
	cfg    ReplayConfig
	events []domain.SimulationEvent
	pos    int
	loaded bool
}

// NewReplaySource creates a replay source. Loading is lazy: the store is
// read on the first Next call.
func NewReplaySource(store ports.DataStore, cfg ReplayConfig) *ReplaySource {
	return &ReplaySource{store: store, cfg: cfg}
}

// Next implements ports.EventSource.
func (r *ReplaySource) Next(ctx context.Context) (domain.SimulationEvent, error) {
	if !r.loaded {
		if err := r.load(ctx); err != nil {
			return nil, err
		}
	}
	if r.pos >= len(r.events) {
		return nil, io.EOF
	}
	ev := r.events[r.pos]
	r.pos++
	return ev, nil
}

// Reset implements ports.EventSource. The loaded events are kept; replaying
// re-reads nothing and yields the identical stream.
func (r *ReplaySource) Reset() error {
	r.pos = 0
	return nil
}

func (r *ReplaySource) load(ctx context.Context) error {
	snapshots, err := r.store.SnapshotsBetween(ctx, r.cfg.Start, r.cfg.End, r.cfg.Platforms)
	if err != nil {
		return fmt.Errorf("feed.ReplaySource: load snapshots: %w", err)
	}
	books, err := r.store.OrderBooksBetween(ctx, r.cfg.Start, r.cfg.End, r.cfg.Platforms)
	if err != nil {
		return fmt.Errorf("feed.ReplaySource: load orderbooks: %w", err)
	}
	resolutions, err := r.store.ResolutionsBetween(ctx, r.cfg.Start, r.cfg.End, r.cfg.Platforms)
	if err != nil {
		return fmt.Errorf("feed.ReplaySource: load resolutions: %w", err)
	}

	events := make([]domain.SimulationEvent, 0, len(snapshots)+len(books)+len(resolutions))
	for _, s := range snapshots {
		events = append(events, domain.MarketUpdateEvent{Market: s})
	}
	for _, b := range books {
		events = append(events, domain.OrderBookUpdateEvent{Book: b})
	}
	for _, res := range resolutions {
		events = append(events, domain.ResolutionEvent{Resolution: res})
	}
	domain.SortEvents(events)

	r.events = events
	r.pos = 0
	r.loaded = true
	return nil
}
