package md

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"smacross/internal/errs"
)

type csvCandle struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

var csvTimeLayouts = []string{
	time.RFC3339,
	kiteTimeLayout,
	"2006-01-02 15:04:05",
	DateLayout,
}

// CSVFetcher serves candles from a file loaded once at construction.
type CSVFetcher struct {
	candles []Candle
}

func NewCSVFetcher(path string) (*CSVFetcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles file: %w", err)
	}
	defer f.Close()

	var rows []*csvCandle
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("decode candles file %s: %w", path, err)
	}
	candles := make([]Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := parseCSVTime(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		candles = append(candles, Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return &CSVFetcher{candles: candles}, nil
}

func (c *CSVFetcher) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	if to.Before(from) {
		return nil, errs.Newf(errs.InvalidParameter, "range end %s before start %s", to.Format(DateLayout), from.Format(DateLayout))
	}
	lo, hi := from.Format(DateLayout), to.Format(DateLayout)
	var out []Candle
	for _, candle := range c.candles {
		day := candle.Timestamp.Format(DateLayout)
		if day >= lo && day <= hi {
			out = append(out, candle)
		}
	}
	return out, nil
}

func parseCSVTime(value string) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
