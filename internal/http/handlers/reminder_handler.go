package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

type ReminderHandler struct {
	reminders *services.ReminderService
	log       *zap.Logger
}

func NewReminderHandler(reminders *services.ReminderService, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, log: log}
}

func (h *ReminderHandler) Schedule(c *fiber.Ctx) error {
	var req dto.ScheduleReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entity_id"})
	}
	if req.OccursAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "occurs_at is required"})
	}

	created, err := h.reminders.Schedule(c.Context(), req.EntityType, entityID, req.OccursAt)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.ScheduleResponse{Created: created}})
}

func (h *ReminderHandler) ListByEntity(c *fiber.Ctx) error {
	entityType := c.Query("entity_type")
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if entityType == "" || err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "entity_type and entity_id are required"})
	}

	reminders, err := h.reminders.ListByEntity(c.Context(), entityType, entityID)
	if err != nil {
		h.log.Error("list reminders failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: reminders})
}
