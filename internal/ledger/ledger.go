package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smacross/internal/errs"
	"smacross/internal/strategy"
)

type Position struct {
	Side       strategy.Action `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// Trade is immutable once appended. ProfitOrLoss is set on sells only.
type Trade struct {
	ID           string           `json:"id"`
	Seq          int              `json:"seq"`
	Action       strategy.Action  `json:"action"`
	Price        decimal.Decimal  `json:"price"`
	Timestamp    time.Time        `json:"timestamp"`
	ProfitOrLoss *decimal.Decimal `json:"profit_loss,omitempty"`
}

type State struct {
	Trades           []Trade
	OpenPosition     *Position
	CumulativeProfit decimal.Decimal
}

// Ledger is the only mutation path for trades, position and profit.
type Ledger struct {
	mu    sync.RWMutex
	state State
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) ApplyBuy(price float64, ts time.Time) (Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.OpenPosition != nil {
		return Trade{}, errs.Newf(errs.Internal, "buy at %v while holding position opened at %s", price, l.state.OpenPosition.EntryPrice)
	}
	entry := decimal.NewFromFloat(price)
	l.state.OpenPosition = &Position{Side: strategy.Buy, EntryPrice: entry, OpenedAt: ts}
	return l.appendLocked(Trade{Action: strategy.Buy, Price: entry, Timestamp: ts}), nil
}

// ApplySell closes the open position. Without one it does nothing and
// reports false.
func (l *Ledger) ApplySell(price float64, ts time.Time) (Trade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.OpenPosition == nil {
		return Trade{}, false
	}
	exit := decimal.NewFromFloat(price)
	profit := exit.Sub(l.state.OpenPosition.EntryPrice)
	l.state.CumulativeProfit = l.state.CumulativeProfit.Add(profit)
	l.state.OpenPosition = nil
	return l.appendLocked(Trade{Action: strategy.Sell, Price: exit, Timestamp: ts, ProfitOrLoss: &profit}), true
}

func (l *Ledger) appendLocked(trade Trade) Trade {
	trade.ID = uuid.NewString()
	trade.Seq = len(l.state.Trades) + 1
	l.state.Trades = append(l.state.Trades, trade)
	return trade
}

func (l *Ledger) HasOpenPosition() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.OpenPosition != nil
}

// Snapshot returns a copy that later mutations cannot reach.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	copy := State{
		Trades:           make([]Trade, len(l.state.Trades)),
		CumulativeProfit: l.state.CumulativeProfit,
	}
	for i, t := range l.state.Trades {
		if t.ProfitOrLoss != nil {
			p := *t.ProfitOrLoss
			t.ProfitOrLoss = &p
		}
		copy.Trades[i] = t
	}
	if l.state.OpenPosition != nil {
		pos := *l.state.OpenPosition
		copy.OpenPosition = &pos
	}
	return copy
}
