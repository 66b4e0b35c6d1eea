package broadcaster

import "sync"

// EventType labels the payload of a broadcast event.
type EventType string

const (
	// EventTrade carries an executed or ingested trade.
	EventTrade EventType = "trade"
	// EventBook carries a depth view after the book changed.
	EventBook EventType = "book"
	// EventCandle carries the latest candle revision.
	EventCandle EventType = "candle"
)

// Event is one fan-out message pushed to presentation subscribers.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Subscription receives events from a hub. C is closed on Unsubscribe.
type Subscription struct {
	C  chan Event
	id int
}

// Hub fans events out to a dynamic set of subscribers. Slow subscribers are
// skipped rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Subscription)}
}

// Subscribe registers a new subscriber with the given channel buffer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{C: make(chan Event, buffer), id: h.nextID}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
}

// Broadcast delivers an event to every subscriber that has buffer room.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.C <- event:
		default:
		}
	}
}
