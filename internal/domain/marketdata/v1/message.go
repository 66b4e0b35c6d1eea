package marketdatav1

// Message tags carried in the 1-byte type field of every frame.
const (
	// TagSnapshot marks a full order-book snapshot.
	TagSnapshot byte = 'O'
	// TagUpdate marks an incremental order-book update (same layout as a snapshot).
	TagUpdate byte = 'U'
	// TagCandle marks a candle tick.
	TagCandle byte = 'C'
	// TagTrade marks a market trade.
	TagTrade byte = 'M'
)

// Payload sizes in bytes for each tag. The layouts are packed little-endian
// structs: fixed-width character fields followed by float64 values.
const (
	// BookPayloadSize = 10 product + 23 timestamp + 2 liquidity doubles + 40
	// bid doubles + 40 ask doubles.
	BookPayloadSize = 10 + 23 + 8 + 8 + 40*8 + 40*8
	// CandlePayloadSize = 23 timestamp + 5 doubles.
	CandlePayloadSize = 23 + 5*8
	// TradePayloadSize = 10 product + 23 timestamp + 2 doubles.
	TradePayloadSize = 10 + 23 + 8 + 8
)

// bookDepth is the number of (price, quantity) pairs per side in a book message.
const bookDepth = 20

// Message is the closed set of decoded wire variants: Snapshot, Update,
// CandleTick and Trade.
type Message interface {
	isMessage()
}

// PriceQty is one (price, quantity) pair from a book message.
type PriceQty struct {
	Price    float64
	Quantity float64
}

// Book is the shared layout of snapshot and update messages: top-of-book
// liquidity plus twenty (price, quantity) pairs per side.
type Book struct {
	ProductID    string
	Timestamp    string
	BidLiquidity float64
	AskLiquidity float64
	Bids         [bookDepth]PriceQty
	Asks         [bookDepth]PriceQty
}

// BidLevels returns the bid pairs carrying non-zero quantity.
func (b *Book) BidLevels() []PriceQty {
	return nonZero(b.Bids[:])
}

// AskLevels returns the ask pairs carrying non-zero quantity.
func (b *Book) AskLevels() []PriceQty {
	return nonZero(b.Asks[:])
}

func nonZero(pairs []PriceQty) []PriceQty {
	levels := make([]PriceQty, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Quantity > 0 {
			levels = append(levels, pair)
		}
	}
	return levels
}

// Snapshot is a full order-book snapshot; the receiving book is cleared and
// rebuilt from it.
type Snapshot struct {
	Book
}

// Update is an incremental order-book update. The source feed re-sends the
// full top of book, so it is applied exactly like a snapshot.
type Update struct {
	Book
}

// CandleTick is one externally-aggregated OHLCV revision.
type CandleTick struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Trade is one executed market trade.
type Trade struct {
	ProductID string
	Timestamp string
	Price     float64
	Size      float64
}

func (Snapshot) isMessage()   {}
func (Update) isMessage()     {}
func (CandleTick) isMessage() {}
func (Trade) isMessage()      {}
