package marketdatav1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

var (
	// ErrUnknownTag is returned when a frame carries an unrecognized type tag.
	ErrUnknownTag = errors.New("unknown message tag")
	// ErrSizeMismatch is returned when a payload's byte length does not match
	// the expected structure size for its tag.
	ErrSizeMismatch = errors.New("payload size mismatch")
	// ErrFrameLength is returned when a frame declares a length too short to
	// hold the type byte.
	ErrFrameLength = errors.New("invalid frame length")
)

// Decode validates the payload size for the given tag and produces the
// corresponding message variant. Both an unknown tag and a wrong payload size
// are decode errors; they are non-fatal per message and never touch core state.
func Decode(tag byte, payload []byte) (Message, error) {
	switch tag {
	case TagSnapshot:
		book, err := decodeBook(payload)
		if err != nil {
			return nil, err
		}
		return Snapshot{Book: book}, nil
	case TagUpdate:
		book, err := decodeBook(payload)
		if err != nil {
			return nil, err
		}
		return Update{Book: book}, nil
	case TagCandle:
		return decodeCandle(payload)
	case TagTrade:
		return decodeTrade(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// PayloadSize returns the expected payload size for a tag, or false for an
// unrecognized tag. Transports with no length framing (the shared-memory
// region) use it to slice the payload out of the raw region.
func PayloadSize(tag byte) (int, bool) {
	switch tag {
	case TagSnapshot, TagUpdate:
		return BookPayloadSize, true
	case TagCandle:
		return CandlePayloadSize, true
	case TagTrade:
		return TradePayloadSize, true
	default:
		return 0, false
	}
}

// ReadFrame reads one framed message from r: a 4-byte little-endian length
// (which includes the type byte), the 1-byte tag, then the payload. Framing
// errors are fatal for the stream; the caller decides what a decode error
// from the returned payload means.
func ReadFrame(r io.Reader) (byte, []byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length < 1 {
		return 0, nil, fmt.Errorf("%w: %d", ErrFrameLength, length)
	}

	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return 0, nil, err
	}

	payload := make([]byte, length-1)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return tag[0], payload, nil
}

// AppendFrame appends a framed message to buf. Used by the feed tests and
// replay tooling; the wire producer is external.
func AppendFrame(buf []byte, tag byte, payload []byte) []byte {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)+1))
	buf = append(buf, header[:]...)
	buf = append(buf, tag)
	return append(buf, payload...)
}

func decodeBook(payload []byte) (Book, error) {
	if len(payload) != BookPayloadSize {
		return Book{}, fmt.Errorf("%w: book payload is %d bytes, want %d", ErrSizeMismatch, len(payload), BookPayloadSize)
	}

	d := decoder{buf: payload}
	book := Book{
		ProductID:    d.chars(10),
		Timestamp:    d.chars(23),
		BidLiquidity: d.float64(),
		AskLiquidity: d.float64(),
	}
	for i := 0; i < bookDepth; i++ {
		book.Bids[i] = PriceQty{Price: d.float64(), Quantity: d.float64()}
	}
	for i := 0; i < bookDepth; i++ {
		book.Asks[i] = PriceQty{Price: d.float64(), Quantity: d.float64()}
	}
	return book, nil
}

func decodeCandle(payload []byte) (CandleTick, error) {
	if len(payload) != CandlePayloadSize {
		return CandleTick{}, fmt.Errorf("%w: candle payload is %d bytes, want %d", ErrSizeMismatch, len(payload), CandlePayloadSize)
	}

	d := decoder{buf: payload}
	return CandleTick{
		Timestamp: d.chars(23),
		Open:      d.float64(),
		High:      d.float64(),
		Low:       d.float64(),
		Close:     d.float64(),
		Volume:    d.float64(),
	}, nil
}

func decodeTrade(payload []byte) (Trade, error) {
	if len(payload) != TradePayloadSize {
		return Trade{}, fmt.Errorf("%w: trade payload is %d bytes, want %d", ErrSizeMismatch, len(payload), TradePayloadSize)
	}

	d := decoder{buf: payload}
	return Trade{
		ProductID: d.chars(10),
		Timestamp: d.chars(23),
		Price:     d.float64(),
		Size:      d.float64(),
	}, nil
}

// decoder walks a packed little-endian payload. Bounds are guaranteed by the
// size check preceding construction.
type decoder struct {
	buf []byte
	off int
}

// chars reads a fixed-width character field, trimming trailing NUL padding.
func (d *decoder) chars(n int) string {
	s := d.buf[d.off : d.off+n]
	d.off += n
	return strings.TrimRight(string(s), "\x00")
}

func (d *decoder) float64() float64 {
	v := binary.LittleEndian.Uint64(d.buf[d.off : d.off+8])
	d.off += 8
	return math.Float64frombits(v)
}
