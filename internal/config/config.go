package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	ProviderKite    = "kite"
	ProviderAlpaca  = "alpaca"
	ProviderPolygon = "polygon"
	ProviderCSV     = "csv"
)

type KiteConfig struct {
	BaseURL    string        `yaml:"base_url"`
	UserID     string        `yaml:"user_id"`
	EncToken   string        `yaml:"enc_token"`
	Instrument string        `yaml:"instrument"`
	Interval   string        `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
}

type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Timeframe string `yaml:"timeframe"`
	Feed      string `yaml:"feed"`
}

type PolygonConfig struct {
	APIKey     string `yaml:"api_key"`
	Multiplier int    `yaml:"multiplier"`
	Timespan   string `yaml:"timespan"`
}

type Config struct {
	Provider      string        `yaml:"provider"`
	Symbol        string        `yaml:"symbol"`
	FastPeriod    int           `yaml:"fast_period"`
	SlowPeriod    int           `yaml:"slow_period"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	LookbackDays  int           `yaml:"lookback_days"`
	FetchRetries  int           `yaml:"fetch_retries"`
	FetchBackoff  time.Duration `yaml:"fetch_backoff"`
	Port          int           `yaml:"port"`
	LogLevel      string        `yaml:"log_level"`
	DevLog        bool          `yaml:"dev_log"`
	DecisionsPath string        `yaml:"decisions_path"`
	JournalPath   string        `yaml:"journal_path"`
	CSVPath       string        `yaml:"csv_path"`

	Kite    KiteConfig    `yaml:"kite"`
	Alpaca  AlpacaConfig  `yaml:"alpaca"`
	Polygon PolygonConfig `yaml:"polygon"`
}

func Default() Config {
	return Config{
		Provider:     ProviderKite,
		Symbol:       "260105",
		FastPeriod:   9,
		SlowPeriod:   21,
		TickInterval: time.Second,
		LookbackDays: 10,
		FetchRetries: 3,
		FetchBackoff: 500 * time.Millisecond,
		Port:         3000,
		LogLevel:     "info",
		Kite: KiteConfig{
			BaseURL:    "https://kite.zerodha.com",
			Instrument: "260105",
			Interval:   "15minute",
			Timeout:    15 * time.Second,
		},
		Alpaca: AlpacaConfig{
			Timeframe: "15Min",
			Feed:      "iex",
		},
		Polygon: PolygonConfig{
			Multiplier: 15,
			Timespan:   "minute",
		},
	}
}

// BindFlags registers every option on fs with the defaults as flag defaults.
func BindFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "path to a YAML config file")
	flags.String("env-file", ".env", "dotenv file loaded when present; never overrides the environment")
	flags.String("provider", d.Provider, "quote provider: kite, alpaca, polygon or csv")
	flags.String("symbol", d.Symbol, "symbol or ticker for alpaca/polygon")
	flags.Int("fast-period", d.FastPeriod, "fast SMA period")
	flags.Int("slow-period", d.SlowPeriod, "slow SMA period and lookback size")
	flags.Duration("tick-interval", d.TickInterval, "wall-clock pause between ticks; 0 runs as fast as possible")
	flags.Int("lookback-days", d.LookbackDays, "calendar days to search backward for lookback candles")
	flags.Int("fetch-retries", d.FetchRetries, "attempts per quote request")
	flags.Duration("fetch-backoff", d.FetchBackoff, "initial retry backoff")
	flags.Int("port", d.Port, "HTTP listen port")
	flags.String("log-level", d.LogLevel, "debug, info, warn or error")
	flags.Bool("dev-log", d.DevLog, "human readable console logs")
	flags.String("decisions-path", d.DecisionsPath, "NDJSON file receiving one line per tick")
	flags.String("journal-path", d.JournalPath, "SQLite file receiving every trade")
	flags.String("csv-path", d.CSVPath, "candles file for the csv provider")
	flags.String("kite-instrument", d.Kite.Instrument, "kite instrument token")
	flags.String("kite-interval", d.Kite.Interval, "kite candle interval")
	flags.String("alpaca-timeframe", d.Alpaca.Timeframe, "alpaca bar timeframe, e.g. 15Min")
	flags.String("alpaca-feed", d.Alpaca.Feed, "alpaca data feed: iex or sip")
	flags.Int("polygon-multiplier", d.Polygon.Multiplier, "polygon aggregate multiplier")
	flags.String("polygon-timespan", d.Polygon.Timespan, "polygon aggregate timespan")
}

// Load layers defaults, the YAML file, the dotenv file, the environment and
// explicitly set flags, in increasing precedence.
func Load(flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path, _ := flags.GetString("config"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if path, _ := flags.GetString("env-file"); path != "" {
		if err := loadDotEnvIfPresent(path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if err := applyFlags(flags, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadDotEnvIfPresent(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Kite.UserID, "KITE_USER_ID", "user_id")
	setString(&cfg.Kite.EncToken, "KITE_ENC_TOKEN", "enc_token")
	setString(&cfg.Alpaca.APIKey, "APCA_API_KEY_ID")
	setString(&cfg.Alpaca.APISecret, "APCA_API_SECRET_KEY")
	setString(&cfg.Polygon.APIKey, "POLYGON_API_KEY")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Port = p
		}
	}
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*dst = v
			return
		}
	}
}

func applyFlags(flags *pflag.FlagSet, cfg *Config) error {
	var firstErr error
	check := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	flags.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "provider":
			cfg.Provider, err = flags.GetString(f.Name)
		case "symbol":
			cfg.Symbol, err = flags.GetString(f.Name)
		case "fast-period":
			cfg.FastPeriod, err = flags.GetInt(f.Name)
		case "slow-period":
			cfg.SlowPeriod, err = flags.GetInt(f.Name)
		case "tick-interval":
			cfg.TickInterval, err = flags.GetDuration(f.Name)
		case "lookback-days":
			cfg.LookbackDays, err = flags.GetInt(f.Name)
		case "fetch-retries":
			cfg.FetchRetries, err = flags.GetInt(f.Name)
		case "fetch-backoff":
			cfg.FetchBackoff, err = flags.GetDuration(f.Name)
		case "port":
			cfg.Port, err = flags.GetInt(f.Name)
		case "log-level":
			cfg.LogLevel, err = flags.GetString(f.Name)
		case "dev-log":
			cfg.DevLog, err = flags.GetBool(f.Name)
		case "decisions-path":
			cfg.DecisionsPath, err = flags.GetString(f.Name)
		case "journal-path":
			cfg.JournalPath, err = flags.GetString(f.Name)
		case "csv-path":
			cfg.CSVPath, err = flags.GetString(f.Name)
		case "kite-instrument":
			cfg.Kite.Instrument, err = flags.GetString(f.Name)
		case "kite-interval":
			cfg.Kite.Interval, err = flags.GetString(f.Name)
		case "alpaca-timeframe":
			cfg.Alpaca.Timeframe, err = flags.GetString(f.Name)
		case "alpaca-feed":
			cfg.Alpaca.Feed, err = flags.GetString(f.Name)
		case "polygon-multiplier":
			cfg.Polygon.Multiplier, err = flags.GetInt(f.Name)
		case "polygon-timespan":
			cfg.Polygon.Timespan, err = flags.GetString(f.Name)
		}
		check(err)
	})
	return firstErr
}

func validate(cfg Config) error {
	if cfg.FastPeriod <= 0 {
		return fmt.Errorf("fast-period must be > 0")
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		return fmt.Errorf("slow-period must be > fast-period")
	}
	if cfg.TickInterval < 0 {
		return fmt.Errorf("tick-interval must be >= 0")
	}
	if cfg.LookbackDays <= 0 {
		return fmt.Errorf("lookback-days must be > 0")
	}
	if cfg.FetchRetries <= 0 {
		return fmt.Errorf("fetch-retries must be > 0")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	switch cfg.Provider {
	case ProviderKite:
		if cfg.Kite.UserID == "" || cfg.Kite.EncToken == "" {
			return fmt.Errorf("KITE_USER_ID and KITE_ENC_TOKEN are required for the kite provider")
		}
	case ProviderAlpaca:
		if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
			return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required for the alpaca provider")
		}
	case ProviderPolygon:
		if cfg.Polygon.APIKey == "" {
			return fmt.Errorf("POLYGON_API_KEY is required for the polygon provider")
		}
	case ProviderCSV:
		if cfg.CSVPath == "" {
			return fmt.Errorf("csv-path is required for the csv provider")
		}
	default:
		return fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	return nil
}
