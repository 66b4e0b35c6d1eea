package feed

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	marketdatav1 "github.com/muhammadchandra19/market-gateway/internal/domain/marketdata/v1"
	"github.com/muhammadchandra19/market-gateway/pkg/config"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records applied messages in memory.
type captureSink struct {
	mu      sync.Mutex
	books   []marketdatav1.Book
	candles []marketdatav1.CandleTick
	trades  []marketdatav1.Trade
}

func (s *captureSink) ApplyBook(_ context.Context, book marketdatav1.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, book)
}

func (s *captureSink) ApplyCandle(_ context.Context, tick marketdatav1.CandleTick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles, tick)
}

func (s *captureSink) ApplyTrade(_ context.Context, trade marketdatav1.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
}

func newTestServer(t *testing.T, sink Sink) *Server {
	t.Helper()

	log, err := logger.NewLogger()
	require.NoError(t, err)
	return NewServer(config.FeedConfig{Addr: ":0"}, sink, log)
}

// serve runs serveConn for one end of a pipe and reports completion.
func serve(s *Server, conn net.Conn) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.serveConn(context.Background(), conn)
	}()
	return done
}

// Test 1: Framed messages are decoded and dispatched to the sink
func TestServer_Dispatch(t *testing.T) {
	sink := &captureSink{}
	server := newTestServer(t, sink)

	client, remote := net.Pipe()
	done := serve(server, remote)

	var wire []byte
	wire = marketdatav1.AppendFrame(wire, marketdatav1.TagTrade, buildTradePayload())
	wire = marketdatav1.AppendFrame(wire, marketdatav1.TagCandle, make([]byte, marketdatav1.CandlePayloadSize))

	_, err := client.Write(wire)
	require.NoError(t, err)
	client.Close()

	waitDone(t, done)

	assert.Len(t, sink.trades, 1)
	assert.Len(t, sink.candles, 1)
	assert.Equal(t, "BTC-USD", sink.trades[0].ProductID)
}

// Test 2: A decode error skips the message but keeps the stream alive
func TestServer_DecodeErrorNonFatal(t *testing.T) {
	sink := &captureSink{}
	server := newTestServer(t, sink)

	client, remote := net.Pipe()
	done := serve(server, remote)

	var wire []byte
	// Unknown tag with a valid frame, then a valid trade
	wire = marketdatav1.AppendFrame(wire, 'X', []byte{1, 2, 3})
	wire = marketdatav1.AppendFrame(wire, marketdatav1.TagTrade, buildTradePayload())

	_, err := client.Write(wire)
	require.NoError(t, err)
	client.Close()

	waitDone(t, done)

	assert.Len(t, sink.trades, 1)
}

// Test 3: A framing error terminates the connection
func TestServer_FramingErrorFatal(t *testing.T) {
	sink := &captureSink{}
	server := newTestServer(t, sink)

	client, remote := net.Pipe()
	done := serve(server, remote)

	// Zero length is invalid framing
	_, err := client.Write([]byte{0, 0, 0, 0})
	require.NoError(t, err)

	waitDone(t, done)
	client.Close()

	assert.Empty(t, sink.trades)
}

func buildTradePayload() []byte {
	payload := make([]byte, marketdatav1.TradePayloadSize)
	copy(payload, "BTC-USD")
	copy(payload[10:], "2024-01-01T10:00:00.000")
	return payload
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection handler did not finish")
	}
}
