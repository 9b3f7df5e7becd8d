package md

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"smacross/internal/errs"
)

// AlpacaFetcher reads historical bars from the Alpaca market data API.
type AlpacaFetcher struct {
	client    *marketdata.Client
	symbol    string
	timeframe marketdata.TimeFrame
	feed      marketdata.Feed
}

func NewAlpacaFetcher(apiKey, apiSecret, symbol, timeframe, feed string) (*AlpacaFetcher, error) {
	tf, err := parseTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaFetcher{
		client:    client,
		symbol:    symbol,
		timeframe: tf,
		feed:      parseFeed(feed),
	}, nil
}

func (a *AlpacaFetcher) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := a.client.GetBars(a.symbol, marketdata.GetBarsRequest{
		TimeFrame: a.timeframe,
		Start:     from,
		End:       endOfDay(to),
		Feed:      a.feed,
	})
	if err != nil {
		return nil, errs.Wrapf(errs.UpstreamFetch, err, "alpaca bars %s", a.symbol)
	}
	candles := make([]Candle, 0, len(bars))
	for _, bar := range bars {
		candles = append(candles, Candle{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}
	return candles, nil
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

// parseTimeFrame accepts forms like "15Min", "1Hour" and "1Day".
func parseTimeFrame(value string) (marketdata.TimeFrame, error) {
	units := []struct {
		suffix string
		unit   marketdata.TimeFrameUnit
	}{
		{"Min", marketdata.Min},
		{"Hour", marketdata.Hour},
		{"Day", marketdata.Day},
	}
	for _, u := range units {
		if !strings.HasSuffix(value, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(value, u.suffix))
		if err != nil || n <= 0 {
			break
		}
		return marketdata.NewTimeFrame(n, u.unit), nil
	}
	return marketdata.TimeFrame{}, errs.Newf(errs.InvalidParameter, "unsupported alpaca timeframe %q", value)
}
