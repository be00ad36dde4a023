package realtime

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the refresher.
const (
	TypeRefreshed = "runs.refreshed"
	TypeFailed    = "runs.failed"
)

// Event tells page clients that the current run set changed.
type Event struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Generation uint64    `json:"generation"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Count      int       `json:"count"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Broker is an in-memory fan-out event bus for SSE subscribers.
type Broker struct {
	mu     sync.RWMutex
	nextID atomic.Int64
	nextCh atomic.Int64
	subs   map[int64]chan Event
	buffer int
}

// NewBroker creates a Broker whose subscribers buffer up to 16 events.
func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[int64]chan Event),
		buffer: 16,
	}
}

// Publish broadcasts evt to every subscriber. A subscriber whose buffer is
// full misses the event; producers never block.
func (b *Broker) Publish(evt Event) {
	evt.ID = b.nextID.Add(1)
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned func unregisters it and
// closes the channel; calling it more than once is safe.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	id := b.nextCh.Add(1)
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
