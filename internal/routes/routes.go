package routes

import (
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/handlers"
	"github.com/DJELO6elisee/YouVoice-API/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups everything Setup mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Admin         *handlers.AdminHandler
	Health        *handlers.HealthHandler
	Moderation    *handlers.ModerationHandler
	VoiceNotes    *handlers.VoiceNoteHandler
	Reactions     *handlers.ReactionHandler
	Comments      *handlers.CommentHandler
	Shares        *handlers.ShareHandler
	Notifications *handlers.NotificationHandler
	Conversations *handlers.ConversationHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, admins middleware.AdminChecker) {
	app.Static(cfg.UploadURLPrefix, cfg.UploadDir)
	app.Get("/api-docs", h.Health.Docs)

	api := app.Group("/api")

	// General API rate limiter: RATE_LIMIT_MAX per RATE_LIMIT_WINDOW per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitMax,
		Expiration:        cfg.RateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	jwt := middleware.JWTProtected(cfg)

	admin := middleware.AdminRequired(admins)

	// Credential endpoints get a stricter limit: 10 req/min per IP
	authLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	auth := api.Group("/auth")
	auth.Post("/register", authLimiter, h.Auth.Register)
	auth.Post("/login", authLimiter, h.Auth.Login)
	auth.Get("/me", jwt, h.Auth.Me)
	auth.Patch("/me", jwt, h.Auth.UpdateMe)
	mountAdmin(auth.Group("/admin", jwt, admin), h)

	// Registration order matters: /my-notes before /:id
	notes := api.Group("/voice-notes")
	notes.Get("/", h.VoiceNotes.Feed)
	notes.Post("/", jwt, h.VoiceNotes.Create)
	notes.Get("/my-notes", jwt, h.VoiceNotes.MyNotes)
	notes.Get("/:id", h.VoiceNotes.Get)
	notes.Delete("/:id", jwt, h.VoiceNotes.Delete)

	reactions := api.Group("/reactions")
	reactions.Post("/", jwt, h.Reactions.Upsert)
	reactions.Get("/voice-note/:voiceNoteId", h.Reactions.ForVoiceNote)
	reactions.Delete("/:id", jwt, h.Reactions.Remove)

	comments := api.Group("/comments")
	comments.Post("/", jwt, h.Comments.Create)
	comments.Get("/voice-note/:voiceNoteId", h.Comments.ForVoiceNote)
	comments.Delete("/:id", jwt, h.Comments.Delete)

	shares := api.Group("/shares")
	shares.Post("/", jwt, h.Shares.Create)
	shares.Get("/voice-note/:voiceNoteId", h.Shares.ForVoiceNote)

	reports := api.Group("/reports", jwt)
	reports.Post("/", h.Moderation.CreateReport)
	reports.Get("/", admin, h.Moderation.ListReports)
	reports.Patch("/:id", admin, h.Moderation.UpdateReport)

	notifications := api.Group("/notifications", jwt)
	notifications.Get("/", h.Notifications.List)
	notifications.Post("/mark-all-read", h.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", h.Notifications.MarkRead)

	conversations := api.Group("/conversations", jwt)
	conversations.Post("/", h.Conversations.Create)
	conversations.Get("/", h.Conversations.List)
	conversations.Get("/find-users", h.Conversations.FindUsers)
	conversations.Get("/:id/messages", h.Conversations.Messages)
	conversations.Post("/:id/messages", h.Conversations.SendMessage)

	// Admin panel, also reachable under /api/auth/admin
	mountAdmin(api.Group("/admin", jwt, admin), h)
}

func mountAdmin(r fiber.Router, h Handlers) {
	r.Get("/users", h.Admin.ListUsers)
	r.Patch("/users/:id/status", h.Admin.UpdateUserStatus)
	r.Get("/stats", h.Admin.Stats)
	r.Get("/stats/users-over-time", h.Admin.UsersOverTime)
	r.Get("/stats/activity-over-time", h.Admin.ActivityOverTime)
	r.Get("/reports", h.Moderation.ListReports)
	r.Patch("/reports/:id", h.Moderation.UpdateReport)
	r.Delete("/content/:type/:id", h.Moderation.RemoveContent)
}
