package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smacross/internal/config"
	"smacross/internal/engine"
	"smacross/internal/journal"
	"smacross/internal/logger"
	"smacross/internal/md"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg       config.Config
	base      *zap.Logger
	log       *zap.SugaredLogger
	fetcher   md.Fetcher
	decisions *engine.DecisionLogger
	journal   *journal.SQLite
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	base, err := logger.New(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, base: base, log: base.Sugar()}

	fetcher, err := buildFetcher(cfg, a.log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.fetcher = fetcher

	if cfg.DecisionsPath != "" {
		decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, a.log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("decision logger error: %w", err)
		}
		a.decisions = decisions
	}
	if cfg.JournalPath != "" {
		j, err := journal.NewSQLite(cfg.JournalPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.journal = j
	}
	return a, nil
}

func (a *app) newDriver(ctx context.Context, cfg engine.Config) *engine.Driver {
	var opts []engine.Option
	if a.decisions != nil {
		opts = append(opts, engine.WithDecisionLogger(a.decisions))
	}
	if a.journal != nil {
		opts = append(opts, engine.WithTradeSink(a.journal))
	}
	return engine.New(ctx, cfg, a.log, opts...)
}

func (a *app) engineConfig() engine.Config {
	return engine.Config{
		Symbol:       a.symbol(),
		FastPeriod:   a.cfg.FastPeriod,
		SlowPeriod:   a.cfg.SlowPeriod,
		TickInterval: a.cfg.TickInterval,
	}
}

func (a *app) symbol() string {
	if a.cfg.Provider == config.ProviderKite {
		return a.cfg.Kite.Instrument
	}
	return a.cfg.Symbol
}

func (a *app) Close() {
	if a.decisions != nil {
		if err := a.decisions.Close(); err != nil {
			a.log.Warnw("failed to close decision logger", "error", err)
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warnw("failed to close journal", "error", err)
		}
	}
	_ = a.base.Sync()
}

func buildFetcher(cfg config.Config, log *zap.SugaredLogger) (md.Fetcher, error) {
	var (
		fetcher md.Fetcher
		err     error
	)
	switch cfg.Provider {
	case config.ProviderKite:
		fetcher = md.NewKiteFetcher(md.KiteOptions{
			BaseURL:    cfg.Kite.BaseURL,
			UserID:     cfg.Kite.UserID,
			EncToken:   cfg.Kite.EncToken,
			Instrument: cfg.Kite.Instrument,
			Interval:   cfg.Kite.Interval,
			Timeout:    cfg.Kite.Timeout,
		})
	case config.ProviderAlpaca:
		fetcher, err = md.NewAlpacaFetcher(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Symbol, cfg.Alpaca.Timeframe, cfg.Alpaca.Feed)
	case config.ProviderPolygon:
		fetcher, err = md.NewPolygonFetcher(cfg.Polygon.APIKey, cfg.Symbol, cfg.Polygon.Multiplier, cfg.Polygon.Timespan)
	case config.ProviderCSV:
		csv, err := md.NewCSVFetcher(cfg.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("csv provider: %w", err)
		}
		// Local files never benefit from retries.
		return csv, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", cfg.Provider, err)
	}
	return md.WithRetry(fetcher, cfg.FetchRetries, cfg.FetchBackoff, log), nil
}
