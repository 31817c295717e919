package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/volunteer-portal/backend/internal/auth"
	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/rbac"
)

// CronMiddleware protects the periodic-trigger endpoints with a single
// capability check satisfied by either credential: the shared cron secret
// (for the scheduler) or a caller whose role carries the cron permission.
func CronMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Cron-Secret")
		if cfg.CronSecret != "" && secret != "" &&
			subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.CronSecret)) == 1 {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr != "" && tokenStr != authHeader {
			claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
			if err == nil && rbac.HasPermission(claims.Role, rbac.PermRunCronJobs) {
				c.Locals(CtxUserID, claims.UserID)
				c.Locals(CtxRole, claims.Role)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "cron access denied"})
	}
}
