package middleware

import (
	"errors"

	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected verifies the HS256 bearer token and stores it under Locals("user").
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey:  "user",
		TokenLookup: "header:Authorization",
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			message := "Unauthorized: invalid or expired token"
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				message = "Unauthorized: missing or malformed token"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: message,
			})
		},
	})
}
