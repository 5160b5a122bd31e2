package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"MacroPulse/internal/collector"
	"MacroPulse/internal/config"
	"MacroPulse/internal/logging"
	"MacroPulse/internal/model"
	"MacroPulse/internal/notifier"
	"MacroPulse/internal/recorder"
	"MacroPulse/internal/runner"
	"MacroPulse/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	mode := flag.String("mode", "all", "collect | process | forecast | all | schedule")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("logging setup")
	}
	log.Info().Str("mode", *mode).Msg("MacroPulse starting")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init optional Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Collector.Proxy)
	}

	col := collector.New(
		collector.NewYahooFetcher(cfg.Collector.Proxy),
		collector.NewCoinGeckoFetcher(cfg.Collector.Proxy),
		cfg.Paths.Raw, cfg.Collector.Days,
		cfg.Collector.Symbols, cfg.Collector.Coins,
		rec,
	)
	run := runner.New(cfg, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := func(s *model.Summary) {
		if tn == nil || s == nil {
			return
		}
		if err := tn.SendWithRetry(ctx, notifier.FormatSummary(s), 3); err != nil {
			log.Error().Err(err).Msg("send notification")
		}
	}

	failed := false
	doCollect := func() {
		if len(cfg.Collector.Symbols) == 0 && len(cfg.Collector.Coins) == 0 {
			log.Info().Msg("no collector targets configured, skipping collection")
			return
		}
		notify(col.Run(ctx))
	}
	doProcess := func() {
		summary, err := run.Process(ctx)
		if err != nil {
			log.Error().Err(err).Msg("process run failed")
			failed = true
		}
		notify(summary)
	}
	doForecast := func() {
		summary, err := run.Forecast(ctx)
		if err != nil {
			log.Error().Err(err).Msg("forecast run failed")
			failed = true
		}
		notify(summary)
	}

	switch *mode {
	case "collect":
		doCollect()
	case "process":
		doProcess()
	case "forecast":
		doForecast()
	case "all":
		doCollect()
		doProcess()
		doForecast()
	case "schedule":
		sched := scheduler.New(func() {
			doCollect()
			doProcess()
			doForecast()
		})
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			log.Fatal().Err(err).Msg("register cron task")
		}
		sched.Start()
		defer sched.Stop()

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info().Msg("RUN_ON_START enabled, executing pipeline now")
			doCollect()
			doProcess()
			doForecast()
		}

		log.Info().Str("cron", cfg.Schedule.Cron).Msg("MacroPulse is running. Press Ctrl+C to stop.")
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutdown signal received, stopping")
		cancel()
		return
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	if failed {
		os.Exit(1)
	}
}
