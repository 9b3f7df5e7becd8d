package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smacross/internal/errs"
	"smacross/internal/ledger"
	"smacross/internal/md"
	"smacross/internal/strategy"
)

var base = time.Date(2024, 3, 8, 9, 15, 0, 0, time.UTC)

func candles(start time.Time, closes ...float64) []md.Candle {
	out := make([]md.Candle, len(closes))
	for i, c := range closes {
		out[i] = md.Candle{Timestamp: start.Add(time.Duration(i) * 15 * time.Minute), Close: c}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testConfig(interval time.Duration) Config {
	return Config{
		Symbol:       "TEST",
		FastPeriod:   DefaultFastPeriod,
		SlowPeriod:   DefaultSlowPeriod,
		TickInterval: interval,
	}
}

func waitDone(t *testing.T, d *Driver) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
}

type recordingSink struct {
	mu     sync.Mutex
	trades []ledger.Trade
	runIDs []string
}

func (r *recordingSink) RecordTrade(ctx context.Context, runID string, trade ledger.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, trade)
	r.runIDs = append(r.runIDs, runID)
	return nil
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestCrossoverScenario(t *testing.T) {
	seed := candles(base.Add(-24*time.Hour), repeat(10, 21)...)
	main := candles(base, append(repeat(12, 9), repeat(8, 10)...)...)
	sink := &recordingSink{}

	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar(), WithTradeSink(sink))
	require.NoError(t, d.Launch(seed, main))
	waitDone(t, d)

	info, state := d.View()
	assert.Equal(t, Completed, info.Status)
	assert.False(t, info.Halted)
	assert.Equal(t, len(main), info.Processed())
	assert.Equal(t, len(main), info.Ticks())

	require.Len(t, state.Trades, 2)
	buy, sell := state.Trades[0], state.Trades[1]
	assert.Equal(t, strategy.Buy, buy.Action)
	assert.Equal(t, "12", buy.Price.String())
	assert.True(t, buy.Timestamp.Equal(main[0].Timestamp))

	assert.Equal(t, strategy.Sell, sell.Action)
	assert.Equal(t, "8", sell.Price.String())
	require.NotNil(t, sell.ProfitOrLoss)
	assert.Equal(t, "-4", sell.ProfitOrLoss.String())
	assert.Equal(t, "-4.00", state.CumulativeProfit.StringFixed(2))
	assert.Nil(t, state.OpenPosition)

	require.Len(t, sink.trades, 2)
	assert.Equal(t, []string{info.RunID, info.RunID}, sink.runIDs)
}

func TestLaunchWhileRunningIsRejected(t *testing.T) {
	seed := candles(base.Add(-24*time.Hour), repeat(10, 21)...)
	main := candles(base, repeat(12, 5)...)

	d := New(context.Background(), testConfig(time.Hour), zap.NewNop().Sugar())
	require.NoError(t, d.Launch(seed, main))
	first := d.Status()
	require.Equal(t, Running, first.Status)

	err := d.Launch(seed, candles(base, 1, 2, 3))
	assert.True(t, errs.Is(err, errs.AlreadyRunning))

	after := d.Status()
	assert.Equal(t, first.RunID, after.RunID)
	assert.Equal(t, first.Total, after.Total)
	assert.Equal(t, Running, after.Status)

	assert.True(t, d.Stop())
	waitDone(t, d)
	stopped := d.Status()
	assert.Equal(t, Completed, stopped.Status)
	assert.True(t, stopped.Halted)
	assert.False(t, d.Stop())
}

func TestLaunchRejectsEmptyRange(t *testing.T) {
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar())

	err := d.Launch(candles(base, repeat(10, 21)...), nil)
	assert.True(t, errs.Is(err, errs.InvalidRange))

	info, state := d.View()
	assert.Equal(t, NotStarted, info.Status)
	assert.Empty(t, state.Trades)
	assert.NoError(t, d.Wait(context.Background()))
}

func TestLaunchRejectsShortSeed(t *testing.T) {
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar())

	err := d.Launch(candles(base, repeat(10, 20)...), candles(base, 1))
	assert.True(t, errs.Is(err, errs.InsufficientData))
	assert.Equal(t, NotStarted, d.Status().Status)
}

func TestLaunchUsesOnlyTrailingSeed(t *testing.T) {
	// A long seed whose early part would trigger a buy if it were scanned.
	seed := candles(base.Add(-48*time.Hour), append(repeat(1, 30), repeat(10, 21)...)...)
	main := candles(base, repeat(10, 3)...)

	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar())
	require.NoError(t, d.Launch(seed, main))
	waitDone(t, d)

	info, state := d.View()
	assert.Equal(t, DefaultSlowPeriod+3, info.Total)
	assert.Empty(t, state.Trades)
}

type alwaysBuy struct{}

func (alwaysBuy) Detect(s strategy.MarketSnapshot) (strategy.Signal, bool) {
	return strategy.Signal{Action: strategy.Buy, Price: s.Close, Reason: "always"}, true
}

func TestMidRunErrorFailsRun(t *testing.T) {
	var buf bytes.Buffer
	decisions := newDecisionLogger(nopCloser{&buf}, zap.NewNop().Sugar())

	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar(), WithDetector(alwaysBuy{}), WithDecisionLogger(decisions))
	require.NoError(t, d.Launch(candles(base, repeat(10, 21)...), candles(base, 10, 11, 12)))
	waitDone(t, d)

	info, state := d.View()
	assert.Equal(t, Failed, info.Status)
	assert.Contains(t, info.Err, "buy at 11")
	assert.Len(t, state.Trades, 1)
	assert.Equal(t, 1, info.Processed())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var last Decision
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, "failed", last.Result)
	assert.Equal(t, info.RunID, last.RunID)
}

func TestRelaunchAfterCompletionStartsFreshLedger(t *testing.T) {
	seed := candles(base.Add(-24*time.Hour), repeat(10, 21)...)
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar())

	require.NoError(t, d.Launch(seed, candles(base, repeat(12, 3)...)))
	waitDone(t, d)
	firstInfo, firstState := d.View()
	require.Len(t, firstState.Trades, 1)
	require.NotNil(t, firstState.OpenPosition)

	require.NoError(t, d.Launch(seed, candles(base, repeat(10, 3)...)))
	waitDone(t, d)
	secondInfo, secondState := d.View()
	assert.NotEqual(t, firstInfo.RunID, secondInfo.RunID)
	assert.Empty(t, secondState.Trades)
	assert.Nil(t, secondState.OpenPosition)
}

func TestPacedRunCompletes(t *testing.T) {
	seed := candles(base.Add(-24*time.Hour), repeat(10, 21)...)
	d := New(context.Background(), testConfig(time.Millisecond), zap.NewNop().Sugar())

	require.NoError(t, d.Launch(seed, candles(base, 10, 10, 10)))
	waitDone(t, d)
	assert.Equal(t, Completed, d.Status().Status)
	assert.Equal(t, 3, d.Status().Processed())
}

func TestBaseContextCancellationHaltsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(ctx, testConfig(time.Hour), zap.NewNop().Sugar())
	require.NoError(t, d.Launch(candles(base, repeat(10, 21)...), candles(base, 10)))

	cancel()
	waitDone(t, d)
	info := d.Status()
	assert.Equal(t, Completed, info.Status)
	assert.True(t, info.Halted)
	assert.Equal(t, 0, info.Processed())
}

func TestDecisionLoggerRecordsEveryTick(t *testing.T) {
	var buf bytes.Buffer
	decisions := newDecisionLogger(nopCloser{&buf}, zap.NewNop().Sugar())
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar(), WithDecisionLogger(decisions))

	main := candles(base, 12, 12, 12, 12)
	require.NoError(t, d.Launch(candles(base.Add(-24*time.Hour), repeat(10, 21)...), main))
	waitDone(t, d)
	require.NoError(t, decisions.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(main))

	var first Decision
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "bought", first.Result)
	assert.Equal(t, DefaultSlowPeriod, first.Index)
	assert.Equal(t, strategy.Buy, first.Signal)
	assert.NotEmpty(t, first.TradeID)

	var second Decision
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "hold", second.Result)
}

func TestFlatSeriesNeverTrades(t *testing.T) {
	for _, price := range []float64{0.1, 0.3, 17.35, 100.15, 1234.55} {
		d := New(context.Background(), testConfig(0), zap.NewNop().Sugar())
		require.NoError(t, d.Launch(candles(base.Add(-24*time.Hour), repeat(price, 21)...), candles(base, repeat(price, 20)...)))
		waitDone(t, d)

		info, state := d.View()
		assert.Equal(t, Completed, info.Status, "price %v", price)
		assert.Empty(t, state.Trades, "price %v", price)
	}
}

// stopOnTick stops its driver while evaluating the given tick index.
type stopOnTick struct {
	driver *Driver
	calls  int
	at     int
}

func (s *stopOnTick) Detect(snap strategy.MarketSnapshot) (strategy.Signal, bool) {
	if s.calls == s.at {
		s.driver.Stop()
	}
	s.calls++
	return strategy.Crossover{}.Detect(snap)
}

func TestStopDuringLastTickIsNotHalted(t *testing.T) {
	det := &stopOnTick{at: 1}
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar(), WithDetector(det))
	det.driver = d

	require.NoError(t, d.Launch(candles(base, repeat(10, 21)...), candles(base, 10, 10)))
	waitDone(t, d)

	info := d.Status()
	assert.Equal(t, Completed, info.Status)
	assert.False(t, info.Halted)
	assert.Equal(t, 2, info.Processed())
}

func TestStopBeforeLastTickIsHalted(t *testing.T) {
	det := &stopOnTick{at: 0}
	d := New(context.Background(), testConfig(0), zap.NewNop().Sugar(), WithDetector(det))
	det.driver = d

	require.NoError(t, d.Launch(candles(base, repeat(10, 21)...), candles(base, 10, 10, 10)))
	waitDone(t, d)

	info := d.Status()
	assert.Equal(t, Completed, info.Status)
	assert.True(t, info.Halted)
	assert.Equal(t, 1, info.Processed())
}
