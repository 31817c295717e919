package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/volunteer-portal/backend/internal/auth"
	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/http/dto"
	"github.com/volunteer-portal/backend/internal/repositories"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cfg      *config.Config
	userRepo *repositories.UserRepo
	log      *zap.Logger
}

func NewAuthHandler(cfg *config.Config, userRepo *repositories.UserRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, userRepo: userRepo, log: log}
}

// Login exchanges a portal-asserted identity for an engine token. The portal
// backend authenticates the user itself and calls this with the shared
// secret; the engine never sees credentials.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if h.cfg.PortalSharedSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "login disabled"})
	}
	secret := c.Get("X-Portal-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.PortalSharedSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid portal secret"})
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "email is required"})
	}

	user, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown user"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.Role, user.Department, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to sign token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
