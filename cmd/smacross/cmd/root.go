package cmd

import (
	"github.com/spf13/cobra"

	"smacross/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "smacross",
	Short: "Replay historical candles through a dual-SMA crossover strategy",
	Long: `smacross replays a historical candle series tick by tick, computes a fast and a
slow simple moving average, and simulates long-only trades whenever they cross.

Runs are started over HTTP (serve) or directly from the terminal (backtest).
Configuration is read from defaults, an optional YAML file, a .env file, the
environment and flags, in increasing precedence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
}
