package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"tennis_bot/internal/bot"
	"tennis_bot/internal/config"
	"tennis_bot/internal/sofascore"
	"tennis_bot/internal/storage"
	"tennis_bot/internal/worker"
)

func main() {
	_ = godotenv.Load()

	interval := flag.Duration("interval", 0, "run continuously with this period instead of once")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	client := sofascore.NewClient(&http.Client{Timeout: cfg.HTTPTimeout})
	w := worker.New(store, client, b, cfg.DefaultTimezone, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *interval <= 0 {
		if err := w.RunOnce(ctx); err != nil {
			log.Error("worker run", "error", err)
			os.Exit(1)
		}
		return
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Error("create scheduler", "error", err)
		os.Exit(1)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(*interval),
		gocron.NewTask(func() {
			if err := w.RunOnce(ctx); err != nil {
				log.Error("worker run", "error", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Error("schedule job", "error", err)
		os.Exit(1)
	}

	log.Info("worker loop started", "interval", interval.String())
	sched.Start()

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Error("scheduler shutdown", "error", err)
	}
	log.Info("worker stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
