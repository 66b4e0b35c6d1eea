package marketcache

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/muhammadchandra19/market-gateway/internal/usecase/candlebuffer"
	"github.com/muhammadchandra19/market-gateway/pkg/errors"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"github.com/muhammadchandra19/market-gateway/pkg/redis"
)

// Cache mirrors the latest market state into Redis for downstream consumers.
// It is a live view, not book persistence: keys are overwritten in place.
type Cache struct {
	client redis.Client
	prefix string
	logger logger.Interface
}

// NewCache creates a cache writing under the given key prefix.
func NewCache(client redis.Client, prefix string, log logger.Interface) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		logger: log,
	}
}

// SetLastPrice stores the most recent trade price.
func (c *Cache) SetLastPrice(ctx context.Context, price float64) error {
	key := c.prefix + "last_price"
	if err := c.client.Set(ctx, key, strconv.FormatFloat(price, 'f', -1, 64), 0); err != nil {
		return errors.NewTracer("failed to cache last price").Wrap(err)
	}
	return nil
}

// PublishCandle stores the latest candle revision and fans it out on the
// candles channel.
func (c *Cache) PublishCandle(ctx context.Context, candle candlebuffer.Candle) error {
	buf, err := json.Marshal(candle)
	if err != nil {
		return errors.NewTracer("failed to marshal candle").Wrap(err)
	}

	if err := c.client.Set(ctx, c.prefix+"latest_candle", buf, 0); err != nil {
		return errors.NewTracer("failed to cache latest candle").Wrap(err)
	}
	if _, err := c.client.Publish(ctx, c.prefix+"candles", buf); err != nil {
		// No subscribers is a normal state; only transport failures matter here.
		c.logger.Error(err, logger.Field{Key: "operation", Value: "PublishCandle"})
	}
	return nil
}
