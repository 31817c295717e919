package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/middleware"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/repositories"
	"github.com/volunteer-portal/backend/internal/services"
	"go.uber.org/zap"
)

type PipelineHandler struct {
	pipeline *services.PipelineService
	log      *zap.Logger
}

func NewPipelineHandler(pipeline *services.PipelineService, log *zap.Logger) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, log: log}
}

func (h *PipelineHandler) CreateStage(c *fiber.Ctx) error {
	var req dto.CreateStageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	stage := &models.PipelineStage{
		ApplicantType: req.ApplicantType,
		StageName:     req.StageName,
		StageOrder:    req.StageOrder,
		IsActive:      true,
	}
	if req.IsActive != nil {
		stage.IsActive = *req.IsActive
	}
	if req.AutoActions != nil {
		stage.AutoActions = models.AutoActions{
			SendNotification:       req.AutoActions.SendNotification,
			NotificationTemplateID: req.AutoActions.NotificationTemplateID,
			CreateFollowup:         req.AutoActions.CreateFollowup,
			FollowupDays:           req.AutoActions.FollowupDays,
		}
	}

	created, err := h.pipeline.CreateStage(c.Context(), stage)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: created})
}

func (h *PipelineHandler) ListStages(c *fiber.Ctx) error {
	applicantType := c.Query("applicant_type")
	if applicantType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "applicant_type is required"})
	}
	stages, err := h.pipeline.ListStages(c.Context(), applicantType)
	if err != nil {
		h.log.Error("list stages failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stages})
}

func (h *PipelineHandler) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	applicantID, err := uuid.Parse(req.ApplicantID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid applicant_id"})
	}
	if req.ApplicantType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "applicant_type is required"})
	}

	entry, err := h.pipeline.Enroll(c.Context(), applicantID, req.ApplicantType, req.Priority, req.Notes, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *PipelineHandler) GetEntry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entry id"})
	}
	entry, err := h.pipeline.GetEntry(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *PipelineHandler) ListEntries(c *fiber.Ctx) error {
	filter := repositories.PipelineEntryFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("applicant_type"); v != "" {
		filter.ApplicantType = &v
	}
	if v := c.Query("stage"); v != "" {
		filter.CurrentStage = &v
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	entries, err := h.pipeline.ListEntries(c.Context(), filter)
	if err != nil {
		h.log.Error("list entries failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

// Advance moves an entry to the requested stage, or to the next active stage
// when the request names none.
func (h *PipelineHandler) Advance(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entry id"})
	}

	var req dto.AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	actorID := middleware.GetUserID(c)
	var entry *models.PipelineEntry
	if req.Stage == "" {
		entry, err = h.pipeline.AdvanceNext(c.Context(), id, actorID)
	} else {
		entry, err = h.pipeline.Advance(c.Context(), id, req.Stage, actorID)
	}
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *PipelineHandler) TransitionEntryStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entry id"})
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	entry, err := h.pipeline.TransitionEntryStatus(c.Context(), id, req.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}
