package md

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smacross/internal/errs"
)

func writeCandles(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestCSVFetcherFiltersByDay(t *testing.T) {
	path := writeCandles(t, `timestamp,open,high,low,close,volume
2024-03-07T15:15:00+0530,10,10,10,10,5
2024-03-08 09:15:00,11,11,11,11,5
2024-03-08 09:30:00,12,12,12,12,5
2024-03-11,13,13,13,13,5
`)
	fetcher, err := NewCSVFetcher(path)
	require.NoError(t, err)

	day, _ := ParseDate("2024-03-08")
	candles, err := fetcher.FetchPriceSeries(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 11.0, candles[0].Close)
	assert.Equal(t, 12.0, candles[1].Close)

	weekend, _ := ParseDate("2024-03-09")
	candles, err = fetcher.FetchPriceSeries(context.Background(), weekend, weekend)
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestCSVFetcherCloseOnlyColumns(t *testing.T) {
	path := writeCandles(t, "timestamp,close\n2024-03-08,42.5\n")
	fetcher, err := NewCSVFetcher(path)
	require.NoError(t, err)

	day, _ := ParseDate("2024-03-08")
	candles, err := fetcher.FetchPriceSeries(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 42.5, candles[0].Close)
}

func TestCSVFetcherRejectsBadTimestamp(t *testing.T) {
	path := writeCandles(t, "timestamp,close\nyesterday,1\n")
	_, err := NewCSVFetcher(path)
	assert.Error(t, err)
}

func TestCSVFetcherRejectsInvertedRange(t *testing.T) {
	path := writeCandles(t, "timestamp,close\n2024-03-08,1\n")
	fetcher, err := NewCSVFetcher(path)
	require.NoError(t, err)

	from, _ := ParseDate("2024-03-09")
	to, _ := ParseDate("2024-03-08")
	_, err = fetcher.FetchPriceSeries(context.Background(), from, to)
	assert.True(t, errs.Is(err, errs.InvalidParameter))
}
