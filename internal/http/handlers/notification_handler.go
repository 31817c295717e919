package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/middleware"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           *zap.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	unreadOnly := c.QueryBool("unread", false)
	notifs, err := h.notifications.ListForUser(c.Context(), userID, unreadOnly,
		c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		h.log.Error("list notifications failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: notifs})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid notification id"})
	}
	if err := h.notifications.MarkRead(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid notification id"})
	}
	if err := h.notifications.Delete(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.notifications.CountUnread(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("count unread failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.UnreadCountResponse{Unread: n}})
}
