package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/services"
)

// respondErr maps service error kinds to HTTP statuses.
func respondErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrAlreadyAcknowledged):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrUnknownStage),
		errors.Is(err, services.ErrUnsupportedAction):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}
