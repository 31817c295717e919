package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/db"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/repositories"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	userRepo := repositories.NewUserRepo(pool)
	itemRepo := repositories.NewActionItemRepo(pool)
	reminderRepo := repositories.NewReminderRepo(pool)
	alertRepo := repositories.NewAlertRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	mailer := services.NewMailClient(cfg.MailerInternalURL, log)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, publisher, log)
	itemService := services.NewActionItemService(itemRepo, userRepo, publisher, log)
	reminderService := services.NewReminderService(reminderRepo, itemService, userRepo, mailer, notificationService, cfg, log)
	alertService := services.NewAlertService(alertRepo, userRepo, notificationService, publisher, log)
	summaryService := services.NewSummaryService(itemService, alertService, notificationService, log)

	log.Info("worker started")

	reminderTicker := time.NewTicker(cfg.ReminderDispatchInterval)
	sweepTicker := time.NewTicker(cfg.OverdueSweepInterval)
	summaryTicker := time.NewTicker(time.Hour)
	defer reminderTicker.Stop()
	defer sweepTicker.Stop()
	defer summaryTicker.Stop()

	var lastSummary time.Time

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reminderTicker.C:
			runReminderDispatch(ctx, reminderService, log)
		case <-sweepTicker.C:
			runOverdueSweep(ctx, itemService, log)
		case <-summaryTicker.C:
			lastSummary = maybeRunWeeklySummary(ctx, summaryService, cfg, lastSummary, time.Now(), log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runReminderDispatch(ctx context.Context, reminders *services.ReminderService, log *zap.Logger) {
	result, err := reminders.Dispatch(ctx, time.Now())
	if err != nil {
		log.Error("reminder dispatch failed", zap.Error(err))
		return
	}
	if result.Processed > 0 || result.Failed > 0 {
		log.Info("reminder dispatch pass",
			zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
	}
}

func runOverdueSweep(ctx context.Context, items *services.ActionItemService, log *zap.Logger) {
	result, err := items.SweepOverdue(ctx, time.Now())
	if err != nil {
		log.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if result.Processed > 0 || result.Failed > 0 {
		log.Info("overdue sweep pass",
			zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
	}
}

// maybeRunWeeklySummary fires at most once per day, on the configured
// weekday. Returns the new last-run time.
func maybeRunWeeklySummary(ctx context.Context, summary *services.SummaryService, cfg *config.Config, lastRun, now time.Time, log *zap.Logger) time.Time {
	if now.Weekday() != cfg.WeeklySummaryWeekday {
		return lastRun
	}
	if !lastRun.IsZero() && now.Sub(lastRun) < 24*time.Hour {
		return lastRun
	}

	created, err := summary.GenerateWeekly(ctx, now)
	if err != nil {
		log.Error("weekly summary failed", zap.Error(err))
		return lastRun
	}
	log.Info("weekly summary generated", zap.Int("notified", created))
	return now
}
