package session

import (
	"github.com/muhammadchandra19/market-gateway/internal/usecase/candlebuffer"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/pricebuffer"
)

// Options represents configuration options for the Session.
type Options struct {
	ProductID     string
	PriceCapacity int
	MaxCandles    int
}

// DefaultOptions returns the default session options.
func DefaultOptions() *Options {
	return &Options{
		ProductID:     "BTC-USD",
		PriceCapacity: pricebuffer.DefaultCapacity,
		MaxCandles:    candlebuffer.DefaultMaxBuckets,
	}
}
