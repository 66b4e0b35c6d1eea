package candlebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: The first observation opens a bucket at the observed price
func TestBuffer_ObserveOpensBucket(t *testing.T) {
	b := New(10)

	pos := b.Observe("2024-01-01T10:00", 100)

	// A sole bucket is both earliest and newest; earliest wins
	assert.Equal(t, PositionEarliest, pos)
	assert.Equal(t, 1, b.Len())

	candle, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 100.0, candle.Open)
	assert.Equal(t, 100.0, candle.High)
	assert.Equal(t, 100.0, candle.Low)
	assert.Equal(t, 100.0, candle.Close)
}

// Test 2: Successive observations extend close, high and low
func TestBuffer_ObserveExtendsOHLC(t *testing.T) {
	b := New(10)

	for _, price := range []float64{10, 12, 8, 11} {
		b.Observe("2024-01-01T10:00", price)
	}

	candle, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 10.0, candle.Open)
	assert.Equal(t, 12.0, candle.High)
	assert.Equal(t, 8.0, candle.Low)
	assert.Equal(t, 11.0, candle.Close)

	// Each observation is retained as a distinct revision
	assert.Len(t, b.Revisions("2024-01-01T10:00"), 4)
}

// Test 3: A new minute opens a new bucket and leaves the old one sealed
func TestBuffer_MinuteRollover(t *testing.T) {
	b := New(10)

	b.Observe("2024-01-01T10:00", 100)
	b.Observe("2024-01-01T10:00", 105)
	b.Observe("2024-01-01T10:01", 103)

	assert.Equal(t, 2, b.Len())

	sealed := b.Revisions("2024-01-01T10:00")
	require.NotEmpty(t, sealed)
	assert.Equal(t, 105.0, sealed[len(sealed)-1].Close)

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 103.0, latest.Open)
	assert.Equal(t, 103.0, latest.Close)
}

// Test 4: Eviction drops the lowest-keyed bucket once the bound is exceeded
func TestBuffer_Eviction(t *testing.T) {
	b := New(2)

	b.Observe("2024-01-01T10:00", 1)
	b.Observe("2024-01-01T10:01", 2)
	pos := b.Observe("2024-01-01T10:02", 3)

	assert.Equal(t, PositionNewest, pos)
	assert.Equal(t, 2, b.Len())
	assert.Empty(t, b.Revisions("2024-01-01T10:00"))
	assert.NotEmpty(t, b.Revisions("2024-01-01T10:01"))
	assert.NotEmpty(t, b.Revisions("2024-01-01T10:02"))
}

// Test 5: With a single-bucket bound, inserting an older key evicts the
// bucket that was just inserted
func TestBuffer_EvictionOfJustInserted(t *testing.T) {
	b := New(1)

	b.Observe("2024-01-01T10:05", 1)
	pos := b.Observe("2024-01-01T10:00", 2)

	// The older key sorts first and is dropped immediately after insertion;
	// its position is reported as middle because it is gone
	assert.Equal(t, PositionMiddle, pos)
	assert.Equal(t, 1, b.Len())
	assert.Empty(t, b.Revisions("2024-01-01T10:00"))
	assert.NotEmpty(t, b.Revisions("2024-01-01T10:05"))
}

// Test 6: Position reporting across the key range
func TestBuffer_Positions(t *testing.T) {
	b := New(10)

	b.Observe("2024-01-01T10:00", 1)
	b.Observe("2024-01-01T10:02", 2)

	// Inserting between the two existing keys reports middle
	assert.Equal(t, PositionMiddle, b.Observe("2024-01-01T10:01", 3))
	// Touching the lowest key reports earliest
	assert.Equal(t, PositionEarliest, b.Observe("2024-01-01T10:00", 4))
	// Touching the highest key reports newest
	assert.Equal(t, PositionNewest, b.Observe("2024-01-01T10:02", 5))
}

// Test 7: Append records wire revisions verbatim
func TestBuffer_Append(t *testing.T) {
	b := New(10)

	first := Candle{Timestamp: "2024-01-01T10:00:01.000", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 3}
	second := Candle{Timestamp: "2024-01-01T10:00:02.000", Open: 10, High: 12, Low: 9, Close: 11.5, Volume: 5}

	b.Append("2024-01-01T10:00", first)
	b.Append("2024-01-01T10:00", second)

	revisions := b.Revisions("2024-01-01T10:00")
	require.Len(t, revisions, 2)
	assert.Equal(t, first, revisions[0])
	assert.Equal(t, second, revisions[1])

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, second, latest)
}

// Test 8: Snapshot returns the last revision per bucket in key order
func TestBuffer_Snapshot(t *testing.T) {
	b := New(10)

	b.Observe("2024-01-01T10:01", 20)
	b.Observe("2024-01-01T10:00", 10)
	b.Observe("2024-01-01T10:00", 15)

	snapshot := b.Snapshot()

	require.Len(t, snapshot, 2)
	assert.Equal(t, "2024-01-01T10:00", snapshot[0].Timestamp)
	assert.Equal(t, 15.0, snapshot[0].Close)
	assert.Equal(t, "2024-01-01T10:01", snapshot[1].Timestamp)
	assert.Equal(t, 20.0, snapshot[1].Close)
}

// Test 9: Latest on an empty buffer reports no candle
func TestBuffer_LatestEmpty(t *testing.T) {
	b := New(10)

	_, ok := b.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}
