package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/middleware"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

type AlertHandler struct {
	alerts *services.AlertService
	log    *zap.Logger
}

func NewAlertHandler(alerts *services.AlertService, log *zap.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, log: log}
}

func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	alert, err := h.alerts.Create(c.Context(), req.Department, req.Severity, req.Message, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: alert})
}

func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid alert id"})
	}

	alert, err := h.alerts.Acknowledge(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: alert})
}

func (h *AlertHandler) List(c *fiber.Ctx) error {
	viewer := &models.User{
		ID:         middleware.GetUserID(c),
		Role:       middleware.GetRole(c),
		Department: middleware.GetDepartment(c),
	}
	alerts, err := h.alerts.ListForViewer(c.Context(), viewer, c.Query("department"),
		c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: alerts})
}
