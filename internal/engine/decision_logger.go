package engine

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"smacross/internal/strategy"
)

type Decision struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	BarTime   time.Time       `json:"bar_time"`
	Symbol    string          `json:"symbol,omitempty"`
	Index     int             `json:"index"`
	Close     float64         `json:"close"`
	FastSMA   float64         `json:"fast_sma"`
	SlowSMA   float64         `json:"slow_sma"`
	Signal    strategy.Action `json:"signal"`
	Reason    string          `json:"reason"`
	Result    string          `json:"result"`
	TradeID   string          `json:"trade_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// DecisionLogger appends one JSON line per tick.
type DecisionLogger struct {
	closer io.Closer
	writer *bufio.Writer
	log    *zap.SugaredLogger
	mu     sync.Mutex
}

func NewDecisionLogger(path string, log *zap.SugaredLogger) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return newDecisionLogger(file, log), nil
}

func newDecisionLogger(w io.WriteCloser, log *zap.SugaredLogger) *DecisionLogger {
	return &DecisionLogger{
		closer: w,
		writer: bufio.NewWriter(w),
		log:    log,
	}
}

func (d *DecisionLogger) Append(decision Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := json.Marshal(decision)
	if err != nil {
		d.log.Errorw("failed to marshal decision", "error", err)
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		d.log.Errorw("failed to write decision", "error", err)
		return
	}
	if err := d.writer.Flush(); err != nil {
		d.log.Errorw("failed to flush decision log", "error", err)
	}
}

func (d *DecisionLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writer.Flush(); err != nil {
		_ = d.closer.Close()
		return err
	}
	return d.closer.Close()
}
