package pricebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Constructor falls back to the default capacity
func TestNew(t *testing.T) {
	b := New(0)
	assert.NotNil(t, b)

	for i := 0; i < DefaultCapacity+10; i++ {
		b.Add(float64(i))
	}
	assert.Len(t, b.Recent(), DefaultCapacity)
}

// Test 2: Fewer writes than capacity round-trip in order
func TestBuffer_RecentBelowCapacity(t *testing.T) {
	b := New(5)

	b.Add(1)
	b.Add(2)
	b.Add(3)

	assert.Equal(t, []float64{1, 2, 3}, b.Recent())
	assert.Equal(t, uint64(3), b.Writes())
}

// Test 3: Writes beyond capacity keep only the newest window
func TestBuffer_RecentAfterWrap(t *testing.T) {
	b := New(3)

	for i := 1; i <= 7; i++ {
		b.Add(float64(i))
	}

	assert.Equal(t, []float64{5, 6, 7}, b.Recent())
	assert.Equal(t, uint64(7), b.Writes())
}

// Test 4: Last reflects the newest write, before and after wrapping
func TestBuffer_Last(t *testing.T) {
	b := New(2)

	_, ok := b.Last()
	assert.False(t, ok)

	b.Add(10)
	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 10.0, last)

	b.Add(20)
	b.Add(30)
	last, ok = b.Last()
	require.True(t, ok)
	assert.Equal(t, 30.0, last)
}

// Test 5: An empty buffer reports no prices
func TestBuffer_Empty(t *testing.T) {
	b := New(4)

	assert.Empty(t, b.Recent())
	assert.Equal(t, uint64(0), b.Writes())
}
