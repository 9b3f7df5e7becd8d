package report

import (
	"encoding/json"
	"fmt"
	"time"

	"smacross/internal/engine"
	"smacross/internal/ledger"
)

const (
	NoCrossover = "No Cross-over found."
	NoPosition  = "No active position"
)

var statusText = map[engine.Status]string{
	engine.NotStarted: "Trade not started yet",
	engine.Running:    "Trade is On-Going... To get the updated report call again",
	engine.Completed:  "Trade is Successfully Completed",
}

type TradeView struct {
	Seq        int    `json:"seq"`
	Action     string `json:"action"`
	Price      string `json:"price"`
	ProfitLoss string `json:"profit_loss,omitempty"`
	Timestamp  string `json:"timestamp"`
}

type Report struct {
	Status          string
	RunID           string
	Progress        string
	TotalProfitLoss string
	// Trades is empty until the first crossover; it then renders as NoCrossover.
	Trades          []TradeView
	CurrentPosition string
	Statistics      *Statistics
}

func (r Report) MarshalJSON() ([]byte, error) {
	var trades any = r.Trades
	if len(r.Trades) == 0 {
		trades = NoCrossover
	}
	return json.Marshal(struct {
		Status          string      `json:"status"`
		RunID           string      `json:"run_id,omitempty"`
		Progress        string      `json:"progress"`
		TotalProfitLoss string      `json:"total_profit_loss"`
		Trades          any         `json:"trades"`
		CurrentPosition string      `json:"current_position"`
		Statistics      *Statistics `json:"statistics,omitempty"`
	}{r.Status, r.RunID, r.Progress, r.TotalProfitLoss, trades, r.CurrentPosition, r.Statistics})
}

// Render projects a run's status and ledger into the caller-facing report.
func Render(info engine.StatusInfo, state ledger.State) Report {
	r := Report{
		Status:          describeStatus(info),
		RunID:           info.RunID,
		Progress:        fmt.Sprintf("%d/%d ticks", info.Processed(), info.Ticks()),
		TotalProfitLoss: state.CumulativeProfit.StringFixed(2),
		CurrentPosition: NoPosition,
		Statistics:      Summarize(state.Trades),
	}
	for _, t := range state.Trades {
		view := TradeView{
			Seq:       t.Seq,
			Action:    string(t.Action),
			Price:     t.Price.String(),
			Timestamp: FormatTimestamp(t.Timestamp),
		}
		if t.ProfitOrLoss != nil {
			view.ProfitLoss = t.ProfitOrLoss.String()
		}
		r.Trades = append(r.Trades, view)
	}
	if state.OpenPosition != nil {
		r.CurrentPosition = fmt.Sprintf("Currently holding stock at %s", state.OpenPosition.EntryPrice)
	}
	return r
}

func describeStatus(info engine.StatusInfo) string {
	if info.Status == engine.Failed {
		return "Trade halted: " + info.Err
	}
	if info.Status == engine.Completed && info.Halted {
		return "Trade was stopped before the end of the series"
	}
	if text, ok := statusText[info.Status]; ok {
		return text
	}
	return string(info.Status)
}

// FormatTimestamp renders t as "March 8th 2024, 9:15:00 am".
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s %d%s %d, %s", t.Month(), t.Day(), ordinal(t.Day()), t.Year(), t.Format("3:04:05 pm"))
}

func ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
