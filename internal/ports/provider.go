package ports

import (
	"context"

	"github.com/alejandrodnm/predsim/internal/domain"
)

// UpdateCallback receives one market update from a live provider.
type UpdateCallback func(event domain.MarketUpdateEvent)

// DataProvider is a push source of live market updates for paper trading.
// Implementations invoke the registered callback once per update, in
// arrival order. A provider that loses its connection logs the error and
// reconnects on its next cycle; it never stops the engine.
type DataProvider interface {
	// Name identifies the provider in logs.
	Name() string

	// Connect starts the update stream. It returns once the stream is up;
	// delivery happens on the provider's own schedule until Disconnect.
	Connect(ctx context.Context) error

	// Disconnect stops the stream and flushes any in-flight callback.
	Disconnect() error

	// OnUpdate registers the callback. Must be called before Connect.
	OnUpdate(cb UpdateCallback)
}
