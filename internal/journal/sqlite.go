package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"smacross/internal/ledger"
	"smacross/internal/strategy"
)

// SQLite is a write-mostly audit trail of the trades of every run. Nothing
// is ever read back into a simulation.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(ctx context.Context, runID string, t ledger.Trade) error {
	var profit sql.NullString
	if t.ProfitOrLoss != nil {
		profit = sql.NullString{String: t.ProfitOrLoss.String(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, run_id, seq, action, price, profit_loss, trade_time, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, runID, t.Seq, string(t.Action), t.Price.String(), profit, t.Timestamp.UTC(), time.Now().UTC(),
	)
	return err
}

func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]ledger.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, seq, action, price, profit_loss, trade_time
		FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []ledger.Trade
	for rows.Next() {
		var (
			t      ledger.Trade
			action string
			price  string
			profit sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Seq, &action, &price, &profit, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Action = strategy.Action(action)
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade %s price: %w", t.ID, err)
		}
		if profit.Valid {
			p, err := decimal.NewFromString(profit.String)
			if err != nil {
				return nil, fmt.Errorf("trade %s profit: %w", t.ID, err)
			}
			t.ProfitOrLoss = &p
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
