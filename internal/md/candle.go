package md

import (
	"context"
	"time"
)

// Candle is one price bar. The simulator only reads Timestamp and Close.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Fetcher returns the candles between from and to (both dates inclusive),
// ascending by timestamp. An empty result means no trading in the range.
type Fetcher interface {
	FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error)
}

type FetcherFunc func(ctx context.Context, from, to time.Time) ([]Candle, error)

func (f FetcherFunc) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	return f(ctx, from, to)
}
