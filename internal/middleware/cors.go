package middleware

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the CORS_ORIGIN list (or "*") and exposes the request id to browsers.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Authorization, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		ExposeHeaders: fiber.HeaderXRequestID,
		MaxAge:        600,
	})
}

func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderXXSSProtection, "1; mode=block")
		return c.Next()
	}
}
