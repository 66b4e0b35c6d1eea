package marketdatav1

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to append a fixed-width NUL-padded character field
func appendChars(buf []byte, s string, width int) []byte {
	field := make([]byte, width)
	copy(field, s)
	return append(buf, field...)
}

// Helper function to append a packed little-endian float64
func appendFloat64(buf []byte, v float64) []byte {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], math.Float64bits(v))
	return append(buf, raw[:]...)
}

// Helper function to build a full book payload
func buildBookPayload(productID, timestamp string) []byte {
	buf := make([]byte, 0, BookPayloadSize)
	buf = appendChars(buf, productID, 10)
	buf = appendChars(buf, timestamp, 23)
	buf = appendFloat64(buf, 500.5) // bid liquidity
	buf = appendFloat64(buf, 620.0) // ask liquidity
	for i := 0; i < 20; i++ {
		buf = appendFloat64(buf, 100-float64(i)) // bid price
		buf = appendFloat64(buf, float64(i%3))   // bid quantity, some zero
	}
	for i := 0; i < 20; i++ {
		buf = appendFloat64(buf, 101+float64(i))
		buf = appendFloat64(buf, float64((i+1)%3))
	}
	return buf
}

// Test 1: Decode a full book snapshot
func TestDecode_Snapshot(t *testing.T) {
	payload := buildBookPayload("BTC-USD", "2024-01-01T10:00:00.000")
	require.Len(t, payload, BookPayloadSize)

	msg, err := Decode(TagSnapshot, payload)
	require.NoError(t, err)

	snapshot, ok := msg.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, "BTC-USD", snapshot.ProductID)
	assert.Equal(t, "2024-01-01T10:00:00.000", snapshot.Timestamp)
	assert.Equal(t, 500.5, snapshot.BidLiquidity)
	assert.Equal(t, 620.0, snapshot.AskLiquidity)
	assert.Equal(t, 100.0, snapshot.Bids[0].Price)
	assert.Equal(t, 101.0, snapshot.Asks[0].Price)

	// Zero-quantity pairs are dropped from the level views
	for _, level := range snapshot.BidLevels() {
		assert.Greater(t, level.Quantity, 0.0)
	}
}

// Test 2: Updates share the book layout
func TestDecode_Update(t *testing.T) {
	payload := buildBookPayload("ETH-USD", "2024-01-01T10:00:01.000")

	msg, err := Decode(TagUpdate, payload)
	require.NoError(t, err)

	update, ok := msg.(Update)
	require.True(t, ok)
	assert.Equal(t, "ETH-USD", update.ProductID)
}

// Test 3: Decode a candle tick
func TestDecode_Candle(t *testing.T) {
	buf := make([]byte, 0, CandlePayloadSize)
	buf = appendChars(buf, "2024-01-01T10:00:00.000", 23)
	buf = appendFloat64(buf, 10)
	buf = appendFloat64(buf, 12)
	buf = appendFloat64(buf, 8)
	buf = appendFloat64(buf, 11)
	buf = appendFloat64(buf, 42.5)
	require.Len(t, buf, CandlePayloadSize)

	msg, err := Decode(TagCandle, buf)
	require.NoError(t, err)

	candle, ok := msg.(CandleTick)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T10:00:00.000", candle.Timestamp)
	assert.Equal(t, 10.0, candle.Open)
	assert.Equal(t, 12.0, candle.High)
	assert.Equal(t, 8.0, candle.Low)
	assert.Equal(t, 11.0, candle.Close)
	assert.Equal(t, 42.5, candle.Volume)
}

// Test 4: Decode a trade
func TestDecode_Trade(t *testing.T) {
	buf := make([]byte, 0, TradePayloadSize)
	buf = appendChars(buf, "BTC-USD", 10)
	buf = appendChars(buf, "2024-01-01T10:00:00.000", 23)
	buf = appendFloat64(buf, 45000.25)
	buf = appendFloat64(buf, 0.5)
	require.Len(t, buf, TradePayloadSize)

	msg, err := Decode(TagTrade, buf)
	require.NoError(t, err)

	trade, ok := msg.(Trade)
	require.True(t, ok)
	assert.Equal(t, "BTC-USD", trade.ProductID)
	assert.Equal(t, 45000.25, trade.Price)
	assert.Equal(t, 0.5, trade.Size)
}

// Test 5: An unknown tag is rejected
func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode('X', []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrUnknownTag)
}

// Test 6: A wrong payload size is rejected for every tag
func TestDecode_SizeMismatch(t *testing.T) {
	for _, tag := range []byte{TagSnapshot, TagUpdate, TagCandle, TagTrade} {
		_, err := Decode(tag, make([]byte, 7))
		assert.ErrorIs(t, err, ErrSizeMismatch, "tag %q", tag)
	}
}

// Test 7: PayloadSize matches the decode expectations
func TestPayloadSize(t *testing.T) {
	size, ok := PayloadSize(TagSnapshot)
	assert.True(t, ok)
	assert.Equal(t, BookPayloadSize, size)

	size, ok = PayloadSize(TagUpdate)
	assert.True(t, ok)
	assert.Equal(t, BookPayloadSize, size)

	size, ok = PayloadSize(TagCandle)
	assert.True(t, ok)
	assert.Equal(t, CandlePayloadSize, size)

	size, ok = PayloadSize(TagTrade)
	assert.True(t, ok)
	assert.Equal(t, TradePayloadSize, size)

	_, ok = PayloadSize('X')
	assert.False(t, ok)
}

// Test 8: Frames round-trip through AppendFrame and ReadFrame
func TestFrameRoundTrip(t *testing.T) {
	payload := buildBookPayload("BTC-USD", "2024-01-01T10:00:00.000")

	var wire []byte
	wire = AppendFrame(wire, TagSnapshot, payload)
	wire = AppendFrame(wire, TagTrade, make([]byte, TradePayloadSize))

	r := bytes.NewReader(wire)

	tag, got, err := ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, TagSnapshot, tag)
	assert.Equal(t, payload, got)

	tag, got, err = ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, TagTrade, tag)
	assert.Len(t, got, TradePayloadSize)
}

// Test 9: A zero frame length is a framing error
func TestReadFrame_InvalidLength(t *testing.T) {
	_, _, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrFrameLength)
}

// Test 10: Truncated frames fail on read, not decode
func TestReadFrame_Truncated(t *testing.T) {
	var wire []byte
	wire = AppendFrame(wire, TagTrade, make([]byte, TradePayloadSize))

	_, _, err := ReadFrame(bytes.NewReader(wire[:10]))
	assert.Error(t, err)
}
