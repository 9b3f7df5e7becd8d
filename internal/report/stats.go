package report

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"smacross/internal/ledger"
)

// Statistics summarises the closed trades of a run.
type Statistics struct {
	ClosedTrades      int    `json:"closed_trades"`
	Wins              int    `json:"wins"`
	Losses            int    `json:"losses"`
	WinRate           string `json:"win_rate"`
	AverageProfitLoss string `json:"average_profit_loss"`
	BestTrade         string `json:"best_trade"`
	WorstTrade        string `json:"worst_trade"`
}

// Summarize returns nil until at least one position has been closed.
func Summarize(trades []ledger.Trade) *Statistics {
	var results stats.Float64Data
	s := &Statistics{}
	for _, t := range trades {
		if t.ProfitOrLoss == nil {
			continue
		}
		pl := t.ProfitOrLoss.InexactFloat64()
		results = append(results, pl)
		switch {
		case t.ProfitOrLoss.IsPositive():
			s.Wins++
		case t.ProfitOrLoss.IsNegative():
			s.Losses++
		}
	}
	if len(results) == 0 {
		return nil
	}
	s.ClosedTrades = len(results)

	mean, _ := stats.Mean(results)
	best, _ := stats.Max(results)
	worst, _ := stats.Min(results)
	s.WinRate = fmt.Sprintf("%.2f%%", float64(s.Wins)/float64(s.ClosedTrades)*100)
	s.AverageProfitLoss = fmt.Sprintf("%.2f", mean)
	s.BestTrade = fmt.Sprintf("%.2f", best)
	s.WorstTrade = fmt.Sprintf("%.2f", worst)
	return s
}
