package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/nadexbt/config"
	"github.com/alejandrodnm/nadexbt/internal/adapters/export"
	"github.com/alejandrodnm/nadexbt/internal/adapters/historical"
	"github.com/alejandrodnm/nadexbt/internal/adapters/notify"
	"github.com/alejandrodnm/nadexbt/internal/adapters/storage"
	"github.com/alejandrodnm/nadexbt/internal/backtest"
	"github.com/alejandrodnm/nadexbt/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = defaults)")
	dataPath := flag.String("data", "", "historical CSV file or directory (overrides config)")
	outDir := flag.String("out", "", "export trades/KPIs/daily metrics to this directory (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug and print the daily series")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	compare := flag.Bool("compare", false, "run the strategy comparison grid instead of a single backtest")
	history := flag.Int("history", 0, "print the last N stored runs and exit")
	runID := flag.String("run", "", "print the trades of a stored run and exit")
	noStore := flag.Bool("no-store", false, "do not persist the run in SQLite")
	sample := flag.Int("sample", -1, "number of sample trades to print (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *sample >= 0 {
		cfg.Output.SampleTrades = *sample
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsole(cfg.Output.SampleTrades, *verbose)

	if *history > 0 || *runID != "" {
		if err := showHistory(ctx, cfg.Storage.DSN, console, *history, *runID); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	btCfg := cfg.Backtest()
	if err := btCfg.Validate(); err != nil {
		slog.Error("invalid strategy config", "err", err)
		os.Exit(1)
	}

	slog.Info("nadexbt starting",
		"config", *configPath,
		"data", cfg.Data.Path,
		"rsi_period", btCfg.RSIPeriod,
		"rsi_method", btCfg.RSIMethod,
		"oversold", btCfg.Oversold,
		"overbought", btCfg.Overbought,
		"pricing", btCfg.Pricing.Model,
		"fan_out", btCfg.FanOut,
		"compare", *compare,
	)

	source := historical.NewCSVSource(cfg.Data.Path)

	if *compare {
		engine := backtest.New(btCfg, source, nil)
		if err := runCompare(ctx, engine, console, cfg.Variants()); err != nil {
			slog.Error("comparison failed", "err", err)
			os.Exit(1)
		}
		return
	}

	var store ports.RunStorage
	if !*noStore {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	reporters := []ports.Reporter{console}
	if cfg.Output.Dir != "" {
		reporters = append(reporters, export.NewFiles(cfg.Output.Dir))
	}

	engine := backtest.New(btCfg, source, store, reporters...)
	run, err := engine.Run(ctx)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	stats := source.Stats()
	slog.Info("nadexbt finished",
		"run_id", run.ID,
		"files", stats.Files,
		"rows", stats.Rows,
		"rows_dropped", stats.Dropped(),
		"stored", store != nil,
	)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
