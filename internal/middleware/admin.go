package middleware

import (
	"context"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminChecker decides whether a user may use the admin API.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// AdminRequired must run after JWTProtected. The stored is_admin flag and the
// ADMIN_EMAILS list both grant access; the token claim alone does not.
func AdminRequired(checker AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := identity.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		isAdmin, err := checker.IsAdmin(c.UserContext(), userID)
		if err != nil || !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
