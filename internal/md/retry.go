package md

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"smacross/internal/errs"
)

type retryFetcher struct {
	next     Fetcher
	attempts int
	initial  time.Duration
	log      *zap.SugaredLogger
}

// WithRetry retries failed fetches with exponential backoff. Parameter errors
// are returned immediately.
func WithRetry(next Fetcher, attempts int, initial time.Duration, log *zap.SugaredLogger) Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &retryFetcher{next: next, attempts: attempts, initial: initial, log: log}
}

func (r *retryFetcher) FetchPriceSeries(ctx context.Context, from, to time.Time) ([]Candle, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), ctx)

	var out []Candle
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		candles, err := r.next.FetchPriceSeries(ctx, from, to)
		if err != nil {
			if errs.Is(err, errs.InvalidParameter) {
				return backoff.Permanent(err)
			}
			r.log.Warnw("fetch price series failed", "attempt", attempt, "from", from.Format(DateLayout), "to", to.Format(DateLayout), "error", err)
			return err
		}
		out = candles
		return nil
	}, b)
	if err != nil {
		return nil, err
	}
	return out, nil
}
