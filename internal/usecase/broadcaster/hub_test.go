package broadcaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Events fan out to every subscriber
func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	sub1 := hub.Subscribe(4)
	sub2 := hub.Subscribe(4)

	hub.Broadcast(Event{Type: EventTrade, Data: "t1"})

	event := <-sub1.C
	assert.Equal(t, EventTrade, event.Type)
	assert.Equal(t, "t1", event.Data)

	event = <-sub2.C
	assert.Equal(t, "t1", event.Data)
}

// Test 2: A full subscriber is skipped instead of blocking the publisher
func TestHub_SlowSubscriberSkipped(t *testing.T) {
	hub := NewHub()

	slow := hub.Subscribe(1)
	fast := hub.Subscribe(4)

	hub.Broadcast(Event{Type: EventBook, Data: 1})
	hub.Broadcast(Event{Type: EventBook, Data: 2})

	// The slow subscriber only ever sees the first event
	assert.Len(t, slow.C, 1)
	assert.Len(t, fast.C, 2)
}

// Test 3: Unsubscribe closes the channel and is idempotent
func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe(1)
	hub.Unsubscribe(sub)

	_, open := <-sub.C
	assert.False(t, open)

	// A second unsubscribe must not panic on the closed channel
	require.NotPanics(t, func() { hub.Unsubscribe(sub) })

	// Broadcasting after unsubscribe reaches nobody
	hub.Broadcast(Event{Type: EventCandle})
}
