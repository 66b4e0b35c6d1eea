package candlebuffer

import (
	"sort"
	"sync"
)

// DefaultMaxBuckets bounds the number of distinct minute buckets retained.
const DefaultMaxBuckets = 500

// Position reports where the bucket affected by an observation sits in the
// ordered key sequence. Callers use it to decide UI scroll behavior.
type Position int

const (
	// PositionEarliest means the affected bucket holds the lowest key.
	PositionEarliest Position = iota
	// PositionNewest means the affected bucket holds the highest key.
	PositionNewest
	// PositionMiddle means the bucket is neither first nor last, or was
	// evicted immediately after insertion.
	PositionMiddle
)

// Candle is one OHLCV revision of a minute bucket.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Buffer is a time-bucketed OHLCV aggregator. Each minute key maps to the
// sequence of successive revisions of that minute's candle; the last revision
// is always the authoritative current OHLC for the minute.
//
// When the number of distinct buckets exceeds the configured maximum, the
// single bucket with the lowest key is dropped after insertion. Under a
// pathological single-bucket capacity this can evict the bucket that was
// just inserted; that coupling is intentional and pinned by tests.
type Buffer struct {
	mu         sync.Mutex
	buckets    map[string][]Candle
	keys       []string // sorted ascending
	maxBuckets int
}

// New creates a candle buffer bounded to maxBuckets distinct minutes. A
// non-positive bound falls back to DefaultMaxBuckets.
func New(maxBuckets int) *Buffer {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	return &Buffer{
		buckets:    make(map[string][]Candle),
		maxBuckets: maxBuckets,
	}
}

// Observe folds one trade price into the bucket for minuteKey. The first
// observation of a minute opens the bucket with open=high=low=close=price;
// later observations append a new revision extending close, high and low.
func (b *Buffer) Observe(minuteKey string, price float64) Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	revisions, exists := b.buckets[minuteKey]
	if !exists {
		b.insertKey(minuteKey)
		b.buckets[minuteKey] = []Candle{{
			Timestamp: minuteKey,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
		}}
	} else {
		next := revisions[len(revisions)-1]
		next.Close = price
		if price > next.High {
			next.High = price
		}
		if price < next.Low {
			next.Low = price
		}
		b.buckets[minuteKey] = append(revisions, next)
	}

	b.evict()
	return b.position(minuteKey)
}

// Append records a fully-formed candle revision for minuteKey, as delivered
// by the candle tick feed.
func (b *Buffer) Append(minuteKey string, candle Candle) Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.buckets[minuteKey]; !exists {
		b.insertKey(minuteKey)
	}
	b.buckets[minuteKey] = append(b.buckets[minuteKey], candle)

	b.evict()
	return b.position(minuteKey)
}

// Latest returns the most recent revision of the newest bucket, or false if
// no buckets exist.
func (b *Buffer) Latest() (Candle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.keys) == 0 {
		return Candle{}, false
	}
	revisions := b.buckets[b.keys[len(b.keys)-1]]
	return revisions[len(revisions)-1], true
}

// Len returns the number of distinct minute buckets.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.keys)
}

// Revisions returns a copy of the revision sequence for minuteKey.
func (b *Buffer) Revisions(minuteKey string) []Candle {
	b.mu.Lock()
	defer b.mu.Unlock()

	revisions := b.buckets[minuteKey]
	out := make([]Candle, len(revisions))
	copy(out, revisions)
	return out
}

// Snapshot returns the authoritative (last) revision of every bucket in key
// order, oldest minute first.
func (b *Buffer) Snapshot() []Candle {
	b.mu.Lock()
	defer b.mu.Unlock()

	candles := make([]Candle, 0, len(b.keys))
	for _, key := range b.keys {
		revisions := b.buckets[key]
		candles = append(candles, revisions[len(revisions)-1])
	}
	return candles
}

// insertKey adds minuteKey to the sorted key sequence.
func (b *Buffer) insertKey(minuteKey string) {
	i := sort.SearchStrings(b.keys, minuteKey)
	b.keys = append(b.keys, "")
	copy(b.keys[i+1:], b.keys[i:])
	b.keys[i] = minuteKey
}

// evict drops the lowest-keyed bucket while the bound is exceeded. Runs
// after insertion, matching the source ordering.
func (b *Buffer) evict() {
	for len(b.keys) > b.maxBuckets {
		delete(b.buckets, b.keys[0])
		b.keys = b.keys[1:]
	}
}

// position locates minuteKey in the ordered key sequence after eviction.
func (b *Buffer) position(minuteKey string) Position {
	if len(b.keys) > 0 && minuteKey == b.keys[0] {
		return PositionEarliest
	}
	if len(b.keys) > 0 && minuteKey == b.keys[len(b.keys)-1] {
		return PositionNewest
	}
	return PositionMiddle
}
