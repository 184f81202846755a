package domain

import (
	"sort"
	"time"
)

// EventKind tags the closed set of simulation event variants.
type EventKind string

const (
	EventMarketUpdate    EventKind = "market_update"
	EventOrderBookUpdate EventKind = "orderbook_update"
	EventResolution      EventKind = "resolution"
	EventNews            EventKind = "news"
)

// SimulationEvent is one item of the chronological replay stream.
// All variants carry a timestamp and sort by it.
type SimulationEvent interface {
	Kind() EventKind
	Time() time.Time
}

// MarketUpdateEvent carries a fresh market snapshot.
type MarketUpdateEvent struct {
	Market MarketSnapshot `json:"market"`
}

func (e MarketUpdateEvent) Kind() EventKind { return EventMarketUpdate }
func (e MarketUpdateEvent) Time() time.Time { return e.Market.Timestamp }

// OrderBookUpdateEvent carries a fresh order-book snapshot.
type OrderBookUpdateEvent struct {
	Book OrderBookSnapshot `json:"book"`
}

func (e OrderBookUpdateEvent) Kind() EventKind { return EventOrderBookUpdate }
func (e OrderBookUpdateEvent) Time() time.Time { return e.Book.Timestamp }

// ResolutionEvent carries a market resolution.
type ResolutionEvent struct {
	Resolution MarketResolution `json:"resolution"`
}

func (e ResolutionEvent) Kind() EventKind { return EventResolution }
func (e ResolutionEvent) Time() time.Time { return e.Resolution.Timestamp }

// NewsEvent carries an unstructured headline relevant to one or more markets.
type NewsEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Headline  string    `json:"headline"`
	MarketIDs []string  `json:"market_ids,omitempty"`
	Source    string    `json:"source,omitempty"`
}

func (e NewsEvent) Kind() EventKind { return EventNews }
func (e NewsEvent) Time() time.Time { return e.Timestamp }

// kindRank fixes the intra-tick ordering among simultaneous events:
// market updates first, then book updates, then resolutions.
func kindRank(k EventKind) int {
	switch k {
	case EventMarketUpdate:
		return 0
	case EventOrderBookUpdate:
		return 1
	case EventResolution:
		return 2
	default:
		return 3
	}
}

// SortEvents orders events by timestamp, breaking ties by kind rank.
// Sorting an already ordered slice is a no-op.
func SortEvents(events []SimulationEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].Time(), events[j].Time()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return kindRank(events[i].Kind()) < kindRank(events[j].Kind())
	})
}
