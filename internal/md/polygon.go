package md

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"smacross/internal/errs"
)

// PolygonFetcher reads aggregate bars from Polygon.
type PolygonFetcher struct {
	client     *polygon.Client
	ticker     string
	multiplier int
	timespan   models.Timespan
}

func NewPolygonFetcher(apiKey, ticker string, multiplier int, timespan string) (*PolygonFetcher, error) {
	if apiKey == "" {
		return nil, errs.New(errs.InvalidParameter, "polygon api key is required")
	}
	span, err := parseTimespan(timespan)
	if err != nil {
		return nil, err
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return &PolygonFetcher{
		client:     polygon.New(apiKey),
		ticker:     ticker,
		multiplier: multiplier,
		timespan:   span,
	}, nil
}

func (p *PolygonFetcher) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	params := models.ListAggsParams{
		Ticker:     p.ticker,
		Multiplier: p.multiplier,
		Timespan:   p.timespan,
		From:       models.Millis(from),
		To:         models.Millis(endOfDay(to)),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)
	var candles []Candle
	for iter.Next() {
		agg := iter.Item()
		candles = append(candles, Candle{
			Timestamp: time.Time(agg.Timestamp),
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, errs.Wrapf(errs.UpstreamFetch, err, "polygon aggregates %s", p.ticker)
	}
	return candles, nil
}

func parseTimespan(value string) (models.Timespan, error) {
	switch value {
	case "minute":
		return models.Minute, nil
	case "hour":
		return models.Hour, nil
	case "day", "":
		return models.Day, nil
	default:
		return "", errs.Newf(errs.InvalidParameter, "unsupported polygon timespan %q", value)
	}
}
