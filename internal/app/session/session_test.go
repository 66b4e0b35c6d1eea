package session

import (
	"context"
	"testing"

	marketdatav1 "github.com/muhammadchandra19/market-gateway/internal/domain/marketdata/v1"
	orderbookv1 "github.com/muhammadchandra19/market-gateway/internal/domain/orderbook/v1"
	tradepublisher "github.com/muhammadchandra19/market-gateway/internal/usecase/trade-publisher"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published trades in memory.
type capturePublisher struct {
	events []tradepublisher.Event
}

func (p *capturePublisher) PublishTrade(_ context.Context, event tradepublisher.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestSession(t *testing.T, publisher tradepublisher.Interface) *Session {
	t.Helper()

	log, err := logger.NewLogger()
	require.NoError(t, err)
	return New(log, nil, publisher)
}

// Test 1: Order ids are assigned from a monotonic sequence
func TestSession_NextOrderID(t *testing.T) {
	sess := newTestSession(t, nil)

	first := sess.NextOrderID()
	second := sess.NextOrderID()

	assert.Equal(t, first+1, second)
}

// Test 2: Submitting crossing orders produces fills and feeds the price ring
func TestSession_SubmitOrderMatches(t *testing.T) {
	publisher := &capturePublisher{}
	sess := newTestSession(t, publisher)
	ctx := context.Background()

	_, sellResult, err := sess.SubmitOrder(ctx, PlaceOrderRequest{
		Side: orderbookv1.SideSell, Type: orderbookv1.OrderTypeLimit, Price: 100, Quantity: 5,
	})
	require.NoError(t, err)
	assert.True(t, sellResult.Posted)

	_, buyResult, err := sess.SubmitOrder(ctx, PlaceOrderRequest{
		Side: orderbookv1.SideBuy, Type: orderbookv1.OrderTypeLimit, Price: 100, Quantity: 3,
	})
	require.NoError(t, err)

	assert.False(t, buyResult.Posted)
	assert.Equal(t, 3.0, buyResult.Filled)
	require.Len(t, buyResult.Fills, 1)

	// Each fill lands in the price ring and in the publisher
	last, ok := sess.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 100.0, last)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "local", publisher.events[0].Source)
	assert.Equal(t, 100.0, publisher.events[0].Price)
	assert.Equal(t, 3.0, publisher.events[0].Size)
}

// Test 3: Invalid submissions are rejected before touching the book
func TestSession_SubmitOrderValidation(t *testing.T) {
	sess := newTestSession(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"invalid side", PlaceOrderRequest{Side: "hold", Type: orderbookv1.OrderTypeLimit, Price: 1, Quantity: 1}},
		{"invalid type", PlaceOrderRequest{Side: orderbookv1.SideBuy, Type: "stop", Price: 1, Quantity: 1}},
		{"zero quantity", PlaceOrderRequest{Side: orderbookv1.SideBuy, Type: orderbookv1.OrderTypeLimit, Price: 1, Quantity: 0}},
		{"zero limit price", PlaceOrderRequest{Side: orderbookv1.SideBuy, Type: orderbookv1.OrderTypeLimit, Price: 0, Quantity: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := sess.SubmitOrder(ctx, tc.req)
			assert.Error(t, err)
		})
	}

	assert.Equal(t, 0.0, sess.BidVolume())
	assert.Equal(t, 0.0, sess.AskVolume())
}

// Test 4: An unfilled market order reports its full remainder
func TestSession_MarketOrderEmptyBook(t *testing.T) {
	sess := newTestSession(t, nil)

	_, result, err := sess.SubmitOrder(context.Background(), PlaceOrderRequest{
		Side: orderbookv1.SideBuy, Type: orderbookv1.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)

	assert.False(t, result.Posted)
	assert.Equal(t, 0.0, result.Filled)
	assert.Equal(t, 10.0, result.Remaining)
}

// Test 5: Cancel reports unknown ids without error
func TestSession_CancelOrder(t *testing.T) {
	sess := newTestSession(t, nil)

	id, result, err := sess.SubmitOrder(context.Background(), PlaceOrderRequest{
		Side: orderbookv1.SideSell, Type: orderbookv1.OrderTypeLimit, Price: 100, Quantity: 5,
	})
	require.NoError(t, err)
	require.True(t, result.Posted)

	assert.True(t, sess.CancelOrder(id))
	assert.False(t, sess.CancelOrder(id))
	assert.False(t, sess.CancelOrder(999))
}

// Test 6: ApplyBook replaces the book with the message's non-zero levels
func TestSession_ApplyBook(t *testing.T) {
	sess := newTestSession(t, nil)
	ctx := context.Background()

	// Pre-existing state to be replaced
	_, _, err := sess.SubmitOrder(ctx, PlaceOrderRequest{
		Side: orderbookv1.SideSell, Type: orderbookv1.OrderTypeLimit, Price: 200, Quantity: 1,
	})
	require.NoError(t, err)

	var book marketdatav1.Book
	book.ProductID = "BTC-USD"
	book.Timestamp = "2024-01-01T10:00:00.000"
	book.Bids[0] = marketdatav1.PriceQty{Price: 99, Quantity: 2}
	book.Bids[1] = marketdatav1.PriceQty{Price: 98, Quantity: 0} // dropped
	book.Asks[0] = marketdatav1.PriceQty{Price: 101, Quantity: 4}

	sess.ApplyBook(ctx, book)

	bid, ok := sess.BestBid()
	require.True(t, ok)
	assert.Equal(t, 99.0, bid)
	ask, ok := sess.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 101.0, ask)
	assert.Equal(t, 2.0, sess.BidVolume())
	assert.Equal(t, 4.0, sess.AskVolume())
}

// Test 7: ApplyTrade feeds the price ring and publishes with feed source
func TestSession_ApplyTrade(t *testing.T) {
	publisher := &capturePublisher{}
	sess := newTestSession(t, publisher)

	sess.ApplyTrade(context.Background(), marketdatav1.Trade{
		ProductID: "BTC-USD",
		Timestamp: "2024-01-01T10:00:00.000",
		Price:     45000,
		Size:      0.25,
	})

	last, ok := sess.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 45000.0, last)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "feed", publisher.events[0].Source)
}

// Test 8: ApplyCandle buckets revisions by minute
func TestSession_ApplyCandle(t *testing.T) {
	sess := newTestSession(t, nil)
	ctx := context.Background()

	sess.ApplyCandle(ctx, marketdatav1.CandleTick{
		Timestamp: "2024-01-01T10:00:01.000", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 2,
	})
	sess.ApplyCandle(ctx, marketdatav1.CandleTick{
		Timestamp: "2024-01-01T10:00:02.000", Open: 10, High: 12, Low: 9, Close: 11.5, Volume: 3,
	})

	latest, ok := sess.LatestCandle()
	require.True(t, ok)
	assert.Equal(t, 11.5, latest.Close)

	history := sess.CandleHistory()
	require.Len(t, history, 1)
	assert.Equal(t, 11.5, history[0].Close)
}

// Test 9: MinuteKey truncates wire timestamps to the minute
func TestMinuteKey(t *testing.T) {
	assert.Equal(t, "2024-01-01T10:00", MinuteKey("2024-01-01T10:00:59.999"))
	assert.Equal(t, "2024-01-01T10:00", MinuteKey("2024-01-01T10:00"))
	// Short inputs pass through untouched
	assert.Equal(t, "2024-01-01", MinuteKey("2024-01-01"))
}

// Test 10: Trade events are broadcast to hub subscribers
func TestSession_BroadcastsTrades(t *testing.T) {
	sess := newTestSession(t, nil)

	sub := sess.Hub().Subscribe(8)
	defer sess.Hub().Unsubscribe(sub)

	sess.ApplyTrade(context.Background(), marketdatav1.Trade{Price: 100, Size: 1})

	event := <-sub.C
	assert.NotNil(t, event.Data)
}
