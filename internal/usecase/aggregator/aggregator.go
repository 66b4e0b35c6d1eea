package aggregator

import (
	"context"
	"time"

	"github.com/muhammadchandra19/market-gateway/internal/infrastructure/questdb/ohlc"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/candlebuffer"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/marketcache"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/pricebuffer"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
)

// minuteLayout is the sortable minute-bucket key format.
const minuteLayout = "2006-01-02T15:04"

// Aggregator periodically folds the latest trade price into the candle
// buffer. When the wall clock crosses a minute boundary the just-completed
// bucket is sealed: its final revision is committed to the history store and
// published to the cache, and a new bucket opens at the current price.
type Aggregator struct {
	prices  *pricebuffer.Buffer
	candles *candlebuffer.Buffer
	logger  logger.Interface

	interval time.Duration
	symbol   string
	store    *ohlc.Repository  // nil when questdb is disabled
	cache    *marketcache.Cache // nil when redis is disabled
	now      func() time.Time

	lastMinute string
}

// Options represents configuration options for the Aggregator.
type Options struct {
	Interval time.Duration
	Symbol   string
	Store    *ohlc.Repository
	Cache    *marketcache.Cache
	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

// New creates an aggregator reading prices and writing candles.
func New(prices *pricebuffer.Buffer, candles *candlebuffer.Buffer, log logger.Interface, opts Options) *Aggregator {
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{
		prices:   prices,
		candles:  candles,
		logger:   log,
		interval: opts.Interval,
		symbol:   opts.Symbol,
		store:    opts.Store,
		cache:    opts.Cache,
		now:      opts.Now,
	}
}

// Run drives Step on the configured interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.Step(ctx)
		}
	}
}

// Step performs one aggregation tick. It is a no-op until the first trade
// price arrives.
func (a *Aggregator) Step(ctx context.Context) {
	price, ok := a.prices.Last()
	if !ok {
		return
	}

	minute := a.now().Format(minuteLayout)
	if a.lastMinute != "" && minute != a.lastMinute {
		a.seal(ctx, a.lastMinute)
	}

	a.candles.Observe(minute, price)
	a.lastMinute = minute

	if a.cache != nil {
		if err := a.cache.SetLastPrice(ctx, price); err != nil {
			a.logger.Error(err, logger.Field{Key: "operation", Value: "SetLastPrice"})
		}
	}
}

// seal commits the final revision of the completed minute bucket.
func (a *Aggregator) seal(ctx context.Context, minute string) {
	revisions := a.candles.Revisions(minute)
	if len(revisions) == 0 {
		// The completed bucket may already have been evicted.
		return
	}
	sealed := revisions[len(revisions)-1]

	if a.store != nil {
		bucketTime, err := time.Parse(minuteLayout, minute)
		if err != nil {
			a.logger.Error(err, logger.Field{Key: "minute", Value: minute})
		} else if err := a.store.Store(ctx, &ohlc.OHLC{
			Timestamp: bucketTime,
			Symbol:    a.symbol,
			Open:      sealed.Open,
			High:      sealed.High,
			Low:       sealed.Low,
			Close:     sealed.Close,
			Volume:    sealed.Volume,
		}); err != nil {
			a.logger.Error(err, logger.Field{Key: "operation", Value: "StoreOHLC"}, logger.Field{Key: "minute", Value: minute})
		}
	}

	if a.cache != nil {
		if err := a.cache.PublishCandle(ctx, sealed); err != nil {
			a.logger.Error(err, logger.Field{Key: "operation", Value: "PublishCandle"})
		}
	}

	a.logger.Info("candle sealed",
		logger.Field{Key: "minute", Value: minute},
		logger.Field{Key: "close", Value: sealed.Close},
	)
}
