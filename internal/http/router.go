package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/http/handlers"
	"github.com/volunteer-portal/backend/internal/middleware"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	itemHandler *handlers.ActionItemHandler,
	pipelineHandler *handlers.PipelineHandler,
	approvalHandler *handlers.ApprovalHandler,
	reminderHandler *handlers.ReminderHandler,
	alertHandler *handlers.AlertHandler,
	notificationHandler *handlers.NotificationHandler,
	cronHandler *handlers.CronHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (portal-to-engine exchange, guarded by shared secret)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)

	// Action items
	protected.Post("/action-items", itemHandler.Create)
	protected.Get("/action-items", itemHandler.ListByEntity)
	protected.Get("/action-items/my", itemHandler.ListMine)
	protected.Get("/action-items/:id", itemHandler.Get)
	protected.Post("/action-items/:id/transition", itemHandler.Transition)
	protected.Post("/action-items/:id/comments", itemHandler.AddComment)
	protected.Get("/action-items/:id/comments", itemHandler.ListComments)
	protected.Get("/action-items/:id/history", itemHandler.ListHistory)

	// Pipeline
	protected.Post("/pipeline/stages", middleware.RequirePermission(rbac.PermManagePipeline), pipelineHandler.CreateStage)
	protected.Get("/pipeline/stages", pipelineHandler.ListStages)
	protected.Post("/pipeline/entries", middleware.RequirePermission(rbac.PermManagePipeline), pipelineHandler.Enroll)
	protected.Get("/pipeline/entries", pipelineHandler.ListEntries)
	protected.Get("/pipeline/entries/:id", pipelineHandler.GetEntry)
	protected.Post("/pipeline/entries/:id/advance", middleware.RequirePermission(rbac.PermManagePipeline), pipelineHandler.Advance)
	protected.Post("/pipeline/entries/:id/status", middleware.RequirePermission(rbac.PermManagePipeline), pipelineHandler.TransitionEntryStatus)

	// Machine-proposed actions
	protected.Post("/ai-actions", approvalHandler.Propose)
	protected.Get("/ai-actions", approvalHandler.List)
	protected.Get("/ai-actions/:id", approvalHandler.Get)
	protected.Post("/ai-actions/:id/decide", approvalHandler.Decide)

	// Reminders
	protected.Post("/reminders", reminderHandler.Schedule)
	protected.Get("/reminders", reminderHandler.ListByEntity)

	// Alerts
	protected.Post("/alerts", middleware.RequirePermission(rbac.PermManageAlerts), alertHandler.Create)
	protected.Get("/alerts", alertHandler.List)
	protected.Post("/alerts/:id/ack", alertHandler.Acknowledge)

	// Notifications
	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)
	protected.Delete("/notifications/:id", notificationHandler.Delete)

	// Periodic passes, external scheduler entry points
	cron := app.Group("/internal/cron", middleware.CronMiddleware(cfg))
	cron.Post("/dispatch-reminders", cronHandler.DispatchReminders)
	cron.Post("/sweep-overdue", cronHandler.SweepOverdue)
	cron.Post("/weekly-summary", cronHandler.WeeklySummary)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
