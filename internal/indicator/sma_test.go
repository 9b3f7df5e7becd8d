package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smacross/internal/errs"
)

func TestSMALastWindow(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}

	sma, err := SMA(series, 3, len(series)-1)
	require.NoError(t, err)
	assert.InDelta(t, (3.0+4.0+5.0)/3.0, sma, 1e-9)
}

func TestSMAInteriorIndex(t *testing.T) {
	series := []float64{10, 20, 30, 40, 50}

	sma, err := SMA(series, 2, 2)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, sma, 1e-9)
}

func TestSMAMatchesMeanForEveryPeriod(t *testing.T) {
	series := []float64{4, 8, 15, 16, 23, 42, 7, 9, 11, 3}
	last := len(series) - 1
	for period := 1; period <= len(series); period++ {
		sum := 0.0
		for _, v := range series[len(series)-period:] {
			sum += v
		}
		got, err := SMA(series, period, last)
		require.NoError(t, err, "period %d", period)
		assert.InDelta(t, sum/float64(period), got, 1e-9, "period %d", period)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	series := []float64{1, 2, 3}

	_, err := SMA(series, 4, 2)
	assert.True(t, errs.Is(err, errs.InsufficientData))

	_, err = SMA(series, 3, 1)
	assert.True(t, errs.Is(err, errs.InsufficientData))

	_, err = SMA(nil, 1, 0)
	assert.True(t, errs.Is(err, errs.InsufficientData))
}

func TestSMARejectsNonPositivePeriod(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 0, 1)
	assert.True(t, errs.Is(err, errs.InvalidParameter))
}

func TestSMAEqualForFlatSeriesAcrossPeriods(t *testing.T) {
	for _, price := range []float64{0.1, 0.3, 17.35, 100.15, 1234.55} {
		series := make([]float64, 41)
		for i := range series {
			series[i] = price
		}
		last := len(series) - 1
		fast, err := SMA(series, 9, last)
		require.NoError(t, err)
		slow, err := SMA(series, 21, last)
		require.NoError(t, err)
		assert.Equal(t, fast, slow, "price %v", price)
		assert.Equal(t, price, fast, "price %v", price)
	}
}
