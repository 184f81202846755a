package ports

import (
	"context"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// EventSource is a lazy chronological stream of simulation events with
// non-decreasing timestamps. Sources must be restartable so reproducibility
// tests can replay the exact same stream.
type EventSource interface {
	// Next returns the next event in timestamp order, or io.EOF once the
	// stream is exhausted.
	Next(ctx context.Context) (domain.SimulationEvent, error)

	// Reset rewinds the source to the beginning of the stream.
	Reset() error
}
