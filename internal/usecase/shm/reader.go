package shm

import (
	"context"
	"fmt"
	"os"
	"time"

	marketdatav1 "github.com/muhammadchandra19/market-gateway/internal/domain/marketdata/v1"
	pkgerrors "github.com/muhammadchandra19/market-gateway/pkg/errors"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"golang.org/x/sys/unix"
)

// Sink consumes decoded market-data messages, same contract as the TCP feed.
type Sink interface {
	ApplyBook(ctx context.Context, book marketdatav1.Book)
	ApplyCandle(ctx context.Context, tick marketdatav1.CandleTick)
	ApplyTrade(ctx context.Context, trade marketdatav1.Trade)
}

// Reader polls a fixed-size file-backed shared-memory region written by an
// external producer. The region holds one tagged message at a time:
// a 1-byte type tag followed by the packed payload. The region is re-read
// every poll interval and the message re-applied; book and candle messages
// are idempotent snapshots, so re-application is harmless.
type Reader struct {
	path   string
	size   int
	logger logger.Interface

	file *os.File
	data []byte
}

// NewReader creates a reader for one shared-memory region.
func NewReader(path string, size int, log logger.Interface) *Reader {
	return &Reader{
		path:   path,
		size:   size,
		logger: log,
	}
}

// Initialize maps the region, retrying while the producer has not created it
// yet.
func (r *Reader) Initialize(maxAttempts int, delay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
		}

		file, err := os.Open(r.path)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := unix.Mmap(int(file.Fd()), 0, r.size, unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			file.Close()
			lastErr = err
			continue
		}

		r.file = file
		r.data = data
		r.logger.Info("shared memory mapped",
			logger.Field{Key: "path", Value: r.path},
			logger.Field{Key: "bytes", Value: r.size},
		)
		return nil
	}

	return pkgerrors.NewTracer(fmt.Sprintf("mapping %s failed after %d attempts", r.path, maxAttempts)).Wrap(lastErr)
}

// Close unmaps the region.
func (r *Reader) Close() error {
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			return err
		}
		r.data = nil
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Run polls the region on the given interval until ctx is done.
func (r *Reader) Run(ctx context.Context, interval time.Duration, sink Sink) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.poll(ctx, sink)
		}
	}
}

// poll decodes and applies the message currently in the region, if any.
func (r *Reader) poll(ctx context.Context, sink Sink) {
	if len(r.data) == 0 {
		return
	}

	tag := r.data[0]
	if tag == 0 {
		// Producer has not written yet.
		return
	}

	size, ok := marketdatav1.PayloadSize(tag)
	if !ok || 1+size > len(r.data) {
		r.logger.Warn("unreadable shared-memory message",
			logger.Field{Key: "path", Value: r.path},
			logger.Field{Key: "tag", Value: string(tag)},
		)
		return
	}

	// Copy out before decoding so a concurrent producer write cannot tear
	// the slice under us mid-decode.
	payload := make([]byte, size)
	copy(payload, r.data[1:1+size])

	msg, err := marketdatav1.Decode(tag, payload)
	if err != nil {
		r.logger.Warn("skipping undecodable shared-memory message",
			logger.Field{Key: "path", Value: r.path},
			logger.Field{Key: "error", Value: err.Error()},
		)
		return
	}

	switch m := msg.(type) {
	case marketdatav1.Snapshot:
		sink.ApplyBook(ctx, m.Book)
	case marketdatav1.Update:
		sink.ApplyBook(ctx, m.Book)
	case marketdatav1.CandleTick:
		sink.ApplyCandle(ctx, m)
	case marketdatav1.Trade:
		sink.ApplyTrade(ctx, m)
	}
}
