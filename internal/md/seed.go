package md

import (
	"context"
	"time"

	"smacross/internal/errs"
)

// SeedWindow collects the last need candles strictly before start. It walks
// backward one calendar day at a time, skipping days without trading, and
// gives up after maxDays days.
func SeedWindow(ctx context.Context, fetcher Fetcher, start time.Time, need int, maxDays int) ([]Candle, error) {
	if need <= 0 {
		return nil, nil
	}
	var collected []Candle
	day := start.AddDate(0, 0, -1)
	for tried := 0; tried < maxDays; tried++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candles, err := fetcher.FetchPriceSeries(ctx, day, day)
		if err != nil {
			if errs.KindOf(err) == errs.Unknown {
				return nil, errs.Wrapf(errs.UpstreamFetch, err, "fetch lookback session %s", day.Format(DateLayout))
			}
			return nil, err
		}
		if len(candles) > 0 {
			collected = append(append([]Candle{}, candles...), collected...)
			if len(collected) >= need {
				return collected[len(collected)-need:], nil
			}
		}
		day = day.AddDate(0, 0, -1)
	}
	return nil, errs.Newf(errs.InvalidRange, "found %d of %d lookback candles in the %d days before %s", len(collected), need, maxDays, start.Format(DateLayout))
}
