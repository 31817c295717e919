package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

// CronHandler exposes the periodic passes as endpoints so an external
// scheduler can drive them instead of (or in addition to) the worker binary.
// All three are idempotent per pass.
type CronHandler struct {
	reminders *services.ReminderService
	items     *services.ActionItemService
	summary   *services.SummaryService
	log       *zap.Logger
}

func NewCronHandler(reminders *services.ReminderService, items *services.ActionItemService, summary *services.SummaryService, log *zap.Logger) *CronHandler {
	return &CronHandler{reminders: reminders, items: items, summary: summary, log: log}
}

func (h *CronHandler) DispatchReminders(c *fiber.Ctx) error {
	result, err := h.reminders.Dispatch(c.Context(), time.Now())
	if err != nil {
		h.log.Error("reminder dispatch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.JobResponse{Processed: result.Processed, Failed: result.Failed})
}

func (h *CronHandler) SweepOverdue(c *fiber.Ctx) error {
	result, err := h.items.SweepOverdue(c.Context(), time.Now())
	if err != nil {
		h.log.Error("overdue sweep failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.JobResponse{Processed: result.Processed, Failed: result.Failed})
}

func (h *CronHandler) WeeklySummary(c *fiber.Ctx) error {
	created, err := h.summary.GenerateWeekly(c.Context(), time.Now())
	if err != nil {
		h.log.Error("weekly summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.JobResponse{Processed: created})
}
