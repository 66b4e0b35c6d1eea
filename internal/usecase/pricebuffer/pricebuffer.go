package pricebuffer

import "sync"

// DefaultCapacity is the number of trade prices retained when no explicit
// capacity is configured.
const DefaultCapacity = 10000

// Buffer is a fixed-capacity circular buffer of the most recent trade prices.
//
// The write index increases monotonically and never wraps; slot i lives at
// index i modulo capacity. Once the buffer has wrapped, overwritten slots are
// indistinguishable from unwritten ones. The lock is internal and mandatory;
// callers never synchronize access themselves.
type Buffer struct {
	mu    sync.Mutex
	data  []float64
	index uint64
}

// New creates a price buffer with the given capacity. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		data: make([]float64, capacity),
	}
}

// Add appends a price, overwriting the oldest slot once the buffer is full.
func (b *Buffer) Add(price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.index%uint64(len(b.data))] = price
	b.index++
}

// Last returns the most recently added price, or false if nothing has been
// added yet.
func (b *Buffer) Last() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index == 0 {
		return 0, false
	}
	return b.data[(b.index-1)%uint64(len(b.data))], true
}

// Recent returns all currently-valid prices in chronological order, oldest
// to newest, at most capacity values.
func (b *Buffer) Recent() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := uint64(len(b.data))
	start := uint64(0)
	if b.index > capacity {
		start = b.index - capacity
	}

	prices := make([]float64, 0, b.index-start)
	for i := start; i < b.index; i++ {
		prices = append(prices, b.data[i%capacity])
	}
	return prices
}

// Writes returns the monotonic write count.
func (b *Buffer) Writes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.index
}
