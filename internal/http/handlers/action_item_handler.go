package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/middleware"
	"github.com/volunteer-portal/backend/internal/rbac"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

type ActionItemHandler struct {
	items *services.ActionItemService
	log   *zap.Logger
}

func NewActionItemHandler(items *services.ActionItemService, log *zap.Logger) *ActionItemHandler {
	return &ActionItemHandler{items: items, log: log}
}

func (h *ActionItemHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateActionItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	assignees := make([]uuid.UUID, 0, len(req.Assignees))
	for _, s := range req.Assignees {
		id, err := uuid.Parse(s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid assignee id"})
		}
		assignees = append(assignees, id)
	}

	var relatedID *uuid.UUID
	if req.RelatedID != nil {
		id, err := uuid.Parse(*req.RelatedID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid related_id"})
		}
		relatedID = &id
	}

	item, err := h.items.Create(c.Context(), services.CreateActionItemInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		Assignees:   assignees,
		AssignerID:  middleware.GetUserID(c),
		DueDate:     req.DueDate,
		RelatedType: req.RelatedType,
		RelatedID:   relatedID,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: item})
}

func (h *ActionItemHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid item id"})
	}
	item, err := h.items.GetByID(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: item})
}

func (h *ActionItemHandler) ListMine(c *fiber.Ctx) error {
	items, err := h.items.ListAssignedTo(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("list assigned items failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *ActionItemHandler) ListByEntity(c *fiber.Ctx) error {
	relatedType := c.Query("related_type")
	relatedID, err := uuid.Parse(c.Query("related_id"))
	if relatedType == "" || err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "related_type and related_id are required"})
	}
	items, err := h.items.ListByEntity(c.Context(), relatedType, relatedID)
	if err != nil {
		h.log.Error("list items by entity failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *ActionItemHandler) Transition(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid item id"})
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	item, err := h.items.Transition(c.Context(), id, req.Status, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: item})
}

func (h *ActionItemHandler) AddComment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid item id"})
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "body is required"})
	}

	comment, err := h.items.AddComment(c.Context(), id, middleware.GetUserID(c), req.Body, req.Internal)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: comment})
}

func (h *ActionItemHandler) ListComments(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid item id"})
	}

	// Internal comments are visible to privileged roles only.
	includeInternal := rbac.IsPrivileged(middleware.GetRole(c))
	comments, err := h.items.ListComments(c.Context(), id, includeInternal)
	if err != nil {
		h.log.Error("list comments failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: comments})
}

func (h *ActionItemHandler) ListHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid item id"})
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	history, err := h.items.ListHistory(c.Context(), id, limit, offset)
	if err != nil {
		h.log.Error("list history failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: history})
}
