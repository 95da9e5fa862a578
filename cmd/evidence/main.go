package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/app"
	"github.com/MasterPumpkin/evidence-mp/internal/config"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/jobs"
	"github.com/MasterPumpkin/evidence-mp/internal/logging"
	"github.com/MasterPumpkin/evidence-mp/internal/notify"
	"github.com/MasterPumpkin/evidence-mp/internal/observability"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Base.Fatal("db migrate", zap.Error(err))
	}

	store := db.NewStore(database)
	svc := app.New(store, lg.Base)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.BotToken != "" && len(cfg.NotifyChats) > 0 {
		tg, err := notify.NewTelegram(cfg.BotToken, cfg.NotifyChats)
		if err != nil {
			lg.Base.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			notifier = tg
			lg.Base.Info("telegram notifier enabled", zap.Int("chats", len(cfg.NotifyChats)))
		}
	}

	runner := jobs.New(ctx)
	runner.Every(time.Minute, "stats", jobs.RefreshStats(store, database))
	runner.Every(24*time.Hour, "consult_reminders", jobs.ControlCheckReminders(store, notifier, cfg.Location))
	runner.Every(24*time.Hour, "pending_reminders", jobs.PendingApprovalReminders(store, notifier))

	app.StartHTTP(ctx, cfg.HTTPAddr, database, svc, lg.Base)
	lg.Base.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))

	<-ctx.Done()
	lg.Base.Info("shutting down")
}
