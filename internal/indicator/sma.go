package indicator

import (
	"github.com/shopspring/decimal"

	"smacross/internal/errs"
)

// SMA averages the period values of series ending at endInclusive. The sum
// and mean are taken in decimal so windows over equal values yield equal
// averages regardless of period.
func SMA(series []float64, period int, endInclusive int) (float64, error) {
	if period <= 0 {
		return 0, errs.Newf(errs.InvalidParameter, "sma period must be positive, got %d", period)
	}
	if endInclusive < 0 || endInclusive >= len(series) {
		return 0, errs.Newf(errs.InsufficientData, "sma index %d outside series of length %d", endInclusive, len(series))
	}
	start := endInclusive - period + 1
	if start < 0 {
		return 0, errs.Newf(errs.InsufficientData, "not enough data for %d-period sma: need %d, got %d", period, period, endInclusive+1)
	}
	sum := decimal.Zero
	for _, v := range series[start : endInclusive+1] {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(period))).InexactFloat64(), nil
}
