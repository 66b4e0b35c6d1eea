package session

import (
	"context"
	"fmt"
	"sync/atomic"

	marketdatav1 "github.com/muhammadchandra19/market-gateway/internal/domain/marketdata/v1"
	orderbookv1 "github.com/muhammadchandra19/market-gateway/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/broadcaster"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/candlebuffer"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/orderbook"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/pricebuffer"
	tradepublisher "github.com/muhammadchandra19/market-gateway/internal/usecase/trade-publisher"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
)

// Session is the process-wide trading state: the order book, the trade-price
// ring and the candle aggregation buffers, shared by reference between the
// ingestion workers and the presentation layer. Each component carries its
// own lock; the session adds no locking of its own and guarantees no
// ordering across components.
type Session struct {
	logger    logger.Interface
	productID string

	book    *orderbook.Orderbook
	prices  *pricebuffer.Buffer
	candles *candlebuffer.Buffer
	hub     *broadcaster.Hub

	publisher tradepublisher.Interface // nil when kafka is disabled

	orderSeq atomic.Int64
}

// PlaceOrderRequest describes one manual order submission. A zero ID asks
// the session to assign the next id in its sequence.
type PlaceOrderRequest struct {
	ID        int64                 `json:"id"`
	Side      orderbookv1.Side      `json:"side"`
	Type      orderbookv1.OrderType `json:"type"`
	Price     float64               `json:"price"`
	Quantity  float64               `json:"quantity"`
	Timestamp string                `json:"timestamp"`
}

// New creates a session. publisher may be nil when trade publishing is
// disabled.
func New(log logger.Interface, opts *Options, publisher tradepublisher.Interface) *Session {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Session{
		logger:    log,
		productID: opts.ProductID,
		book:      orderbook.NewOrderbook(),
		prices:    pricebuffer.New(opts.PriceCapacity),
		candles:   candlebuffer.New(opts.MaxCandles),
		hub:       broadcaster.NewHub(),
		publisher: publisher,
	}
}

// NextOrderID returns the next id in the session's order sequence.
func (s *Session) NextOrderID() int64 {
	return s.orderSeq.Add(1)
}

// SubmitOrder matches a manual order against the book. Fills are published
// as trades and the resulting depth is broadcast.
func (s *Session) SubmitOrder(ctx context.Context, req PlaceOrderRequest) (int64, orderbookv1.Result, error) {
	if req.Side != orderbookv1.SideBuy && req.Side != orderbookv1.SideSell {
		return 0, orderbookv1.Result{}, fmt.Errorf("invalid side %q", req.Side)
	}
	if req.Type != orderbookv1.OrderTypeLimit && req.Type != orderbookv1.OrderTypeMarket {
		return 0, orderbookv1.Result{}, fmt.Errorf("invalid order type %q", req.Type)
	}
	if req.Quantity <= 0 {
		return 0, orderbookv1.Result{}, fmt.Errorf("quantity must be positive, got %f", req.Quantity)
	}
	if req.Type == orderbookv1.OrderTypeLimit && req.Price <= 0 {
		return 0, orderbookv1.Result{}, fmt.Errorf("limit price must be positive, got %f", req.Price)
	}

	id := req.ID
	if id == 0 {
		id = s.NextOrderID()
	}
	order := orderbookv1.NewOrder(id, req.Side, req.Price, req.Quantity, req.Type, req.Timestamp)

	var result orderbookv1.Result
	if req.Side == orderbookv1.SideBuy {
		result = s.book.SubmitBuy(order)
	} else {
		result = s.book.SubmitSell(order)
	}

	for _, fill := range result.Fills {
		s.prices.Add(fill.Price)
		s.publishTrade(ctx, tradepublisher.Event{
			ProductID: s.productID,
			Timestamp: req.Timestamp,
			Price:     fill.Price,
			Size:      fill.Quantity,
			Source:    "local",
		})
		s.hub.Broadcast(broadcaster.Event{Type: broadcaster.EventTrade, Data: fill})
	}
	s.broadcastBook()

	return id, result, nil
}

// CancelOrder removes a resting order. Unknown ids report found=false.
func (s *Session) CancelOrder(orderID int64) bool {
	found := s.book.Cancel(orderID)
	if found {
		s.broadcastBook()
	}
	return found
}

// ApplyBook replaces the book with resting limit orders derived from a
// snapshot or update message: one order per non-zero (price, quantity) pair.
func (s *Session) ApplyBook(ctx context.Context, book marketdatav1.Book) {
	bidLevels := book.BidLevels()
	askLevels := book.AskLevels()

	orders := make([]*orderbookv1.Order, 0, len(bidLevels)+len(askLevels))
	for _, level := range bidLevels {
		orders = append(orders, orderbookv1.NewOrder(
			s.NextOrderID(), orderbookv1.SideBuy, level.Price, level.Quantity,
			orderbookv1.OrderTypeLimit, book.Timestamp,
		))
	}
	for _, level := range askLevels {
		orders = append(orders, orderbookv1.NewOrder(
			s.NextOrderID(), orderbookv1.SideSell, level.Price, level.Quantity,
			orderbookv1.OrderTypeLimit, book.Timestamp,
		))
	}

	if err := s.book.ReplaceResting(orders); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "operation", Value: "ApplyBook"})
		return
	}
	s.broadcastBook()
}

// ApplyTrade feeds one market trade into the price ring and publishes it.
func (s *Session) ApplyTrade(ctx context.Context, trade marketdatav1.Trade) {
	s.prices.Add(trade.Price)

	s.publishTrade(ctx, tradepublisher.Event{
		ProductID: trade.ProductID,
		Timestamp: trade.Timestamp,
		Price:     trade.Price,
		Size:      trade.Size,
		Source:    "feed",
	})
	s.hub.Broadcast(broadcaster.Event{Type: broadcaster.EventTrade, Data: trade})
}

// ApplyCandle folds one externally-aggregated candle revision into its
// minute bucket.
func (s *Session) ApplyCandle(_ context.Context, tick marketdatav1.CandleTick) {
	candle := candlebuffer.Candle{
		Timestamp: tick.Timestamp,
		Open:      tick.Open,
		High:      tick.High,
		Low:       tick.Low,
		Close:     tick.Close,
		Volume:    tick.Volume,
	}
	s.candles.Append(MinuteKey(tick.Timestamp), candle)
	s.hub.Broadcast(broadcaster.Event{Type: broadcaster.EventCandle, Data: candle})
}

// BestBid returns the highest resting bid price.
func (s *Session) BestBid() (float64, bool) { return s.book.BestBid() }

// BestAsk returns the lowest resting ask price.
func (s *Session) BestAsk() (float64, bool) { return s.book.BestAsk() }

// BidVolume returns total resting bid quantity.
func (s *Session) BidVolume() float64 { return s.book.BidVolume() }

// AskVolume returns total resting ask quantity.
func (s *Session) AskVolume() float64 { return s.book.AskVolume() }

// BidDepth returns the bid-side depth view, best price first.
func (s *Session) BidDepth() []orderbook.DepthLevel { return s.book.BidDepth() }

// AskDepth returns the ask-side depth view, best price first.
func (s *Session) AskDepth() []orderbook.DepthLevel { return s.book.AskDepth() }

// LastPrice returns the most recent trade price.
func (s *Session) LastPrice() (float64, bool) { return s.prices.Last() }

// RecentPrices returns the retained trade-price history, oldest first.
func (s *Session) RecentPrices() []float64 { return s.prices.Recent() }

// LatestCandle returns the most recent revision of the newest candle bucket.
func (s *Session) LatestCandle() (candlebuffer.Candle, bool) { return s.candles.Latest() }

// CandleHistory returns the authoritative candle per bucket, oldest first.
func (s *Session) CandleHistory() []candlebuffer.Candle { return s.candles.Snapshot() }

// ProductID returns the instrument this session tracks.
func (s *Session) ProductID() string { return s.productID }

// Book exposes the order book to in-process collaborators.
func (s *Session) Book() *orderbook.Orderbook { return s.book }

// Prices exposes the trade-price ring to the aggregator.
func (s *Session) Prices() *pricebuffer.Buffer { return s.prices }

// Candles exposes the candle buffer to the aggregator.
func (s *Session) Candles() *candlebuffer.Buffer { return s.candles }

// Hub exposes the event hub to the presentation layer.
func (s *Session) Hub() *broadcaster.Hub { return s.hub }

func (s *Session) publishTrade(ctx context.Context, event tradepublisher.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTrade(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "operation", Value: "publishTrade"})
	}
}

func (s *Session) broadcastBook() {
	s.hub.Broadcast(broadcaster.Event{
		Type: broadcaster.EventBook,
		Data: map[string]any{
			"bids": s.book.BidDepth(),
			"asks": s.book.AskDepth(),
		},
	})
}

// MinuteKey truncates a wire timestamp ("2006-01-02T15:04:05.000...") to its
// sortable minute bucket key.
func MinuteKey(timestamp string) string {
	const width = len("2006-01-02T15:04")
	if len(timestamp) < width {
		return timestamp
	}
	return timestamp[:width]
}
