package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"smacross/internal/errs"
	"smacross/internal/indicator"
	"smacross/internal/ledger"
	"smacross/internal/md"
	"smacross/internal/strategy"
)

const (
	DefaultFastPeriod   = 9
	DefaultSlowPeriod   = 21
	DefaultTickInterval = time.Second
)

type Config struct {
	Symbol     string
	FastPeriod int
	SlowPeriod int
	// TickInterval paces the run; zero evaluates ticks back to back.
	TickInterval time.Duration
}

// TradeSink receives every trade appended to a run's ledger.
type TradeSink interface {
	RecordTrade(ctx context.Context, runID string, trade ledger.Trade) error
}

// Driver runs at most one simulation at a time and owns its ledger.
type Driver struct {
	cfg       Config
	detector  strategy.Detector
	decisions *DecisionLogger
	sink      TradeSink
	log       *zap.SugaredLogger
	base      context.Context

	mu     sync.Mutex
	ledger *ledger.Ledger
	info   StatusInfo
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Driver)

func WithDecisionLogger(d *DecisionLogger) Option {
	return func(drv *Driver) {
		drv.decisions = d
	}
}

func WithTradeSink(s TradeSink) Option {
	return func(drv *Driver) {
		drv.sink = s
	}
}

func WithDetector(det strategy.Detector) Option {
	return func(drv *Driver) {
		drv.detector = det
	}
}

// New creates an idle driver. Runs live until base is cancelled, Stop is
// called, or the series is exhausted.
func New(base context.Context, cfg Config, log *zap.SugaredLogger, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		detector: strategy.Crossover{},
		log:      log,
		base:     base,
		ledger:   ledger.New(),
		info:     StatusInfo{Status: NotStarted},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Launch starts a run over the last SlowPeriod seed candles followed by
// main. It fails without touching the current run when one is in flight.
func (d *Driver) Launch(seed, main []md.Candle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.info.Status != NotStarted && !d.info.Status.Terminal() {
		return errs.New(errs.AlreadyRunning, "simulation already in progress")
	}
	if len(main) == 0 {
		return errs.New(errs.InvalidRange, "no candles in the requested range")
	}
	if len(seed) < d.cfg.SlowPeriod {
		return errs.Newf(errs.InsufficientData, "need %d lookback candles, got %d", d.cfg.SlowPeriod, len(seed))
	}

	series := make([]md.Candle, 0, d.cfg.SlowPeriod+len(main))
	series = append(series, seed[len(seed)-d.cfg.SlowPeriod:]...)
	series = append(series, main...)
	window := md.NewSeriesWindow(series, d.cfg.SlowPeriod)

	runID := ulid.Make().String()
	ctx, cancel := context.WithCancel(d.base)
	done := make(chan struct{})
	led := ledger.New()

	d.ledger = led
	d.cancel = cancel
	d.done = done
	d.info = StatusInfo{
		RunID:     runID,
		Status:    Running,
		Start:     window.Cursor(),
		Cursor:    window.Cursor(),
		Total:     window.Len(),
		StartedAt: time.Now().UTC(),
	}

	d.log.Infow("simulation started", "run_id", runID, "symbol", d.cfg.Symbol, "ticks", len(main), "interval", d.cfg.TickInterval)
	go d.run(ctx, runID, window, led, done)
	return nil
}

func (d *Driver) run(ctx context.Context, runID string, window *md.SeriesWindow, led *ledger.Ledger, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if d.cfg.TickInterval > 0 {
		ticker := time.NewTicker(d.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				d.finish(runID, nil, !window.Exhausted())
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			d.finish(runID, nil, !window.Exhausted())
			return
		}

		if window.Exhausted() {
			d.finish(runID, nil, false)
			return
		}
		if err := d.step(ctx, runID, window, led); err != nil {
			d.finish(runID, err, false)
			return
		}
	}
}

func (d *Driver) step(ctx context.Context, runID string, window *md.SeriesWindow, led *ledger.Ledger) error {
	index := window.Cursor()
	closes := window.Closes()
	fast, err := indicator.SMA(closes, d.cfg.FastPeriod, index)
	if err != nil {
		return fmt.Errorf("tick %d fast sma: %w", index, err)
	}
	slow, err := indicator.SMA(closes, d.cfg.SlowPeriod, index)
	if err != nil {
		return fmt.Errorf("tick %d slow sma: %w", index, err)
	}
	price, barTime := window.Current()

	signal, ok := d.detector.Detect(strategy.MarketSnapshot{
		Timestamp:       barTime,
		Close:           price,
		FastSMA:         fast,
		SlowSMA:         slow,
		HasOpenPosition: led.HasOpenPosition(),
	})

	decision := Decision{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		BarTime:   barTime,
		Symbol:    d.cfg.Symbol,
		Index:     index,
		Close:     price,
		FastSMA:   fast,
		SlowSMA:   slow,
		Signal:    signal.Action,
		Reason:    signal.Reason,
		Result:    "hold",
	}

	var trade *ledger.Trade
	d.mu.Lock()
	if ok {
		switch signal.Action {
		case strategy.Buy:
			t, err := led.ApplyBuy(signal.Price, barTime)
			if err != nil {
				d.mu.Unlock()
				decision.Result = "failed"
				decision.Error = err.Error()
				d.appendDecision(decision)
				return fmt.Errorf("tick %d: %w", index, err)
			}
			trade = &t
			decision.Result = "bought"
		case strategy.Sell:
			if t, applied := led.ApplySell(signal.Price, barTime); applied {
				trade = &t
				decision.Result = "sold"
			} else {
				decision.Result = "sell_ignored"
			}
		}
	}
	window.Advance()
	d.info.Cursor = window.Cursor()
	d.mu.Unlock()

	if trade != nil {
		decision.TradeID = trade.ID
		d.log.Infow("trade", "run_id", runID, "action", trade.Action, "price", trade.Price, "bar_time", barTime.Format(time.RFC3339), "fast", fast, "slow", slow)
		if d.sink != nil {
			if err := d.sink.RecordTrade(ctx, runID, *trade); err != nil {
				d.log.Errorw("failed to journal trade", "run_id", runID, "trade_id", trade.ID, "error", err)
			}
		}
	} else {
		d.log.Debugw("tick", "run_id", runID, "index", index, "close", price, "fast", fast, "slow", slow)
	}
	d.appendDecision(decision)
	return nil
}

func (d *Driver) appendDecision(decision Decision) {
	if d.decisions != nil {
		d.decisions.Append(decision)
	}
}

func (d *Driver) finish(runID string, err error, halted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info.RunID != runID {
		return
	}
	d.info.FinishedAt = time.Now().UTC()
	d.info.Halted = halted
	if err != nil {
		d.info.Status = Failed
		d.info.Err = err.Error()
		d.log.Errorw("simulation failed", "run_id", runID, "cursor", d.info.Cursor, "error", err)
	} else {
		d.info.Status = Completed
		d.log.Infow("simulation finished", "run_id", runID, "halted", halted, "processed", d.info.Processed(), "ticks", d.info.Ticks())
	}
	if d.cancel != nil {
		d.cancel()
	}
}

// Stop halts the current run after its in-flight tick. It is a no-op when
// nothing is running. A run whose last tick already ran is not marked halted.
func (d *Driver) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info.Status.Terminal() || d.info.Status == NotStarted || d.cancel == nil {
		return false
	}
	d.cancel()
	return true
}

// Wait blocks until the current run reaches a terminal state.
func (d *Driver) Wait(ctx context.Context) error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) Status() StatusInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// View returns the status and ledger of the current run as one consistent
// pair: no tick applies a trade between the two reads.
func (d *Driver) View() (StatusInfo, ledger.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info, d.ledger.Snapshot()
}
