package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/db"
	"github.com/volunteer-portal/backend/internal/events"
	apphttp "github.com/volunteer-portal/backend/internal/http"
	"github.com/volunteer-portal/backend/internal/http/handlers"
	"github.com/volunteer-portal/backend/internal/repositories"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	itemRepo := repositories.NewActionItemRepo(pool)
	pipelineRepo := repositories.NewPipelineRepo(pool)
	aiActionRepo := repositories.NewAIActionRepo(pool)
	reminderRepo := repositories.NewReminderRepo(pool)
	alertRepo := repositories.NewAlertRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	mailer := services.NewMailClient(cfg.MailerInternalURL, log)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, publisher, log)
	itemService := services.NewActionItemService(itemRepo, userRepo, publisher, log)
	pipelineService := services.NewPipelineService(pipelineRepo, itemService, publisher, cfg.ReviewerRole, log)
	approvalService := services.NewApprovalService(aiActionRepo, userRepo, log)
	reminderService := services.NewReminderService(reminderRepo, itemService, userRepo, mailer, notificationService, cfg, log)
	alertService := services.NewAlertService(alertRepo, userRepo, notificationService, publisher, log)
	summaryService := services.NewSummaryService(itemService, alertService, notificationService, log)
	services.RegisterBuiltinActions(approvalService, itemService, alertService, mailer)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, userRepo, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	itemHandler := handlers.NewActionItemHandler(itemService, log)
	pipelineHandler := handlers.NewPipelineHandler(pipelineService, log)
	approvalHandler := handlers.NewApprovalHandler(approvalService, log)
	reminderHandler := handlers.NewReminderHandler(reminderService, log)
	alertHandler := handlers.NewAlertHandler(alertService, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, log)
	cronHandler := handlers.NewCronHandler(reminderService, itemService, summaryService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb,
		authHandler, userHandler, itemHandler, pipelineHandler, approvalHandler,
		reminderHandler, alertHandler, notificationHandler, cronHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
