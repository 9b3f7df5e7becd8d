package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smacross/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trading API",
	Long: `Serve starts the HTTP API:

  GET  /                                     welcome message
  GET  /trade?startDate=YYYY-MM-DD&endDate=  start a simulation over the range
  GET  /report                               report of the current or last run
  POST /stop                                 stop the running simulation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := a.newDriver(ctx, a.engineConfig())
	srv := server.New(driver, a.fetcher, server.Options{
		Lookback:        a.cfg.SlowPeriod,
		MaxLookbackDays: a.cfg.LookbackDays,
	}, a.log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("server listening", "port", a.cfg.Port, "provider", a.cfg.Provider, "symbol", a.symbol())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.log.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Warnw("http shutdown", "error", err)
	}
	driver.Stop()
	if err := driver.Wait(shutdownCtx); err != nil {
		a.log.Warnw("simulation did not stop in time", "error", err)
	}
	a.log.Infow("server shutdown complete")
	return nil
}
