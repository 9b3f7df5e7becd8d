package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteTable prints the report for terminals.
func WriteTable(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "Status: %s\nProgress: %s\n", r.Status, r.Progress); err != nil {
		return err
	}
	if len(r.Trades) == 0 {
		if _, err := fmt.Fprintln(w, NoCrossover); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Action", "Price", "P/L", "Time"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, t := range r.Trades {
			table.Append([]string{strconv.Itoa(t.Seq), t.Action, t.Price, t.ProfitLoss, t.Timestamp})
		}
		table.Render()
	}
	if r.Statistics != nil {
		s := r.Statistics
		if _, err := fmt.Fprintf(w, "Closed: %d  Wins: %d  Losses: %d  Win rate: %s  Avg: %s  Best: %s  Worst: %s\n",
			s.ClosedTrades, s.Wins, s.Losses, s.WinRate, s.AverageProfitLoss, s.BestTrade, s.WorstTrade); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total Profit/Loss: %s\nCurrent Position: %s\n", r.TotalProfitLoss, r.CurrentPosition)
	return err
}
