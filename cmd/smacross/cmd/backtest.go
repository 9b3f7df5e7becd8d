package cmd

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smacross/internal/md"
	"smacross/internal/report"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one simulation in the terminal and print its report",
	Long: `Backtest fetches the candles between --from and --to, collects the lookback
candles before --from, replays the series without pacing and prints the report.

Example:
  smacross backtest --provider csv --csv-path data/nifty.csv --from 2024-03-08 --to 2024-03-08`,
	RunE: runBacktest,
}

var (
	btFrom   string
	btTo     string
	btJSON   bool
	btPacing bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day of the range, YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "last day of the range, YYYY-MM-DD (defaults to --from)")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the report as JSON instead of a table")
	backtestCmd.Flags().BoolVar(&btPacing, "paced", false, "honour --tick-interval instead of replaying at full speed")

	backtestCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if btTo == "" {
		btTo = btFrom
	}
	from, err := md.ParseDate(btFrom)
	if err != nil {
		return err
	}
	to, err := md.ParseDate(btTo)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	candles, err := a.fetcher.FetchPriceSeries(ctx, from, to)
	if err != nil {
		return err
	}
	seed, err := md.SeedWindow(ctx, a.fetcher, from, a.cfg.SlowPeriod, a.cfg.LookbackDays)
	if err != nil {
		return err
	}

	cfg := a.engineConfig()
	if !btPacing {
		cfg.TickInterval = 0
	}
	driver := a.newDriver(ctx, cfg)
	if err := driver.Launch(seed, candles); err != nil {
		return err
	}
	if err := driver.Wait(cmd.Context()); err != nil {
		return err
	}

	rep := report.Render(driver.View())
	out := cmd.OutOrStdout()
	if btJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return report.WriteTable(out, rep)
}
