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

type ApprovalHandler struct {
	approvals *services.ApprovalService
	log       *zap.Logger
}

func NewApprovalHandler(approvals *services.ApprovalService, log *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, log: log}
}

func (h *ApprovalHandler) Propose(c *fiber.Ctx) error {
	var req dto.ProposeActionRequest
	if err := c.BodyParser(&req); err != nil || req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "type is required"})
	}

	action, err := h.approvals.Propose(c.Context(), middleware.GetUserID(c), models.AIActionPayload{
		Type:   req.Type,
		Params: req.Params,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: action})
}

func (h *ApprovalHandler) Decide(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid action id"})
	}

	var req dto.DecideActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	action, err := h.approvals.Decide(c.Context(), id, middleware.GetUserID(c), req.Approve)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: action})
}

func (h *ApprovalHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid action id"})
	}
	action, err := h.approvals.GetByID(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: action})
}

func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}
	actions, err := h.approvals.List(c.Context(), status, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		h.log.Error("list ai actions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: actions})
}
