package ohlc

import "time"

// OHLC is one sealed minute candle persisted to QuestDB.
type OHLC struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
