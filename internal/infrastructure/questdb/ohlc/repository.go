package ohlc

import (
	"context"
	"fmt"

	"github.com/muhammadchandra19/market-gateway/pkg/questdb"
)

// Repository persists sealed candles.
type Repository struct {
	client questdb.QuestDBClient
}

// NewRepository creates a new OHLC repository.
func NewRepository(client questdb.QuestDBClient) *Repository {
	return &Repository{
		client: client,
	}
}

// Migrate creates the ohlc table if it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ohlc (
		timestamp TIMESTAMP,
		symbol SYMBOL,
		open DOUBLE,
		high DOUBLE,
		low DOUBLE,
		close DOUBLE,
		volume DOUBLE
	) TIMESTAMP(timestamp) PARTITION BY DAY`

	if err := r.client.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create ohlc table: %w", err)
	}
	return nil
}

// Store stores one sealed candle.
func (r *Repository) Store(ctx context.Context, candle *OHLC) error {
	query := `INSERT INTO ohlc (timestamp, symbol, open, high, low, close, volume)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	err := r.client.Exec(ctx, query,
		candle.Timestamp, candle.Symbol, candle.Open, candle.High,
		candle.Low, candle.Close, candle.Volume)

	if err != nil {
		return fmt.Errorf("failed to store OHLC: %w", err)
	}

	return nil
}
