package md

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"smacross/internal/errs"
)

const kiteTimeLayout = "2006-01-02T15:04:05-0700"

type KiteOptions struct {
	BaseURL    string
	UserID     string
	EncToken   string
	Instrument string
	Interval   string
	Timeout    time.Duration
}

// KiteFetcher reads historical candles from the Kite web endpoint.
type KiteFetcher struct {
	client *resty.Client
	opts   KiteOptions
}

type kiteResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Data      struct {
		Candles [][]any `json:"candles"`
	} `json:"data"`
}

func NewKiteFetcher(opts KiteOptions) *KiteFetcher {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Authorization", "enctoken "+opts.EncToken).
		SetHeader("Content-Type", "application/json")
	return &KiteFetcher{client: client, opts: opts}
}

func (k *KiteFetcher) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	var result kiteResponse
	var failure kiteResponse
	resp, err := k.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user_id": k.opts.UserID,
			"oi":      "1",
			"from":    from.Format(DateLayout),
			"to":      to.Format(DateLayout),
		}).
		SetResult(&result).
		SetError(&failure).
		Get(fmt.Sprintf("/oms/instruments/historical/%s/%s", k.opts.Instrument, k.opts.Interval))
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamFetch, "kite historical request", err)
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusBadRequest {
			return nil, errs.Newf(errs.InvalidParameter, "kite rejected request: %s", failure.Message)
		}
		return nil, errs.Newf(errs.UpstreamFetch, "kite historical status %d: %s %s", resp.StatusCode(), failure.ErrorType, failure.Message)
	}
	if result.Status != "" && result.Status != "success" {
		return nil, errs.Newf(errs.UpstreamFetch, "kite historical status %q: %s", result.Status, result.Message)
	}

	candles := make([]Candle, 0, len(result.Data.Candles))
	for i, row := range result.Data.Candles {
		candle, err := parseKiteCandle(row)
		if err != nil {
			return nil, errs.Wrapf(errs.UpstreamFetch, err, "decode kite candle %d", i)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseKiteCandle decodes [timestamp, open, high, low, close, volume, (oi)].
func parseKiteCandle(row []any) (Candle, error) {
	if len(row) < 5 {
		return Candle{}, fmt.Errorf("expected at least 5 fields, got %d", len(row))
	}
	raw, ok := row[0].(string)
	if !ok {
		return Candle{}, fmt.Errorf("timestamp is %T, not string", row[0])
	}
	ts, err := time.Parse(kiteTimeLayout, raw)
	if err != nil {
		if ts, err = time.Parse(time.RFC3339, raw); err != nil {
			return Candle{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
		}
	}
	nums := make([]float64, 5)
	for i := 1; i < len(row) && i <= 5; i++ {
		v, ok := row[i].(float64)
		if !ok {
			return Candle{}, fmt.Errorf("field %d is %T, not number", i, row[i])
		}
		nums[i-1] = v
	}
	return Candle{
		Timestamp: ts,
		Open:      nums[0],
		High:      nums[1],
		Low:       nums[2],
		Close:     nums[3],
		Volume:    nums[4],
	}, nil
}
