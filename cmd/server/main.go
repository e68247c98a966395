package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"gorm.io/gorm"

	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/database"
	"github.com/DJELO6elisee/YouVoice-API/internal/handlers"
	"github.com/DJELO6elisee/YouVoice-API/internal/logging"
	"github.com/DJELO6elisee/YouVoice-API/internal/middleware"
	"github.com/DJELO6elisee/YouVoice-API/internal/realtime"
	"github.com/DJELO6elisee/YouVoice-API/internal/routes"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/storage"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDialect != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required", "dialect", cfg.DBDialect)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ logs are also batched into system_logs
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(cfg.AppEnv),
		dbLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		slog.Error("upload storage init failed", "error", err)
		os.Exit(1)
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	userService := services.NewUserService(database.DB, store, cfg.AdminEmails)
	notificationService := services.NewNotificationService(database.DB)
	voiceNoteService := services.NewVoiceNoteService(database.DB, store)
	reactionService := services.NewReactionService(database.DB, notificationService)
	commentService := services.NewCommentService(database.DB, notificationService)
	shareService := services.NewShareService(database.DB, notificationService)
	moderationService := services.NewModerationService(database.DB, notificationService, store)
	conversationService := services.NewConversationService(database.DB)

	// Realtime hub; Redis fans room events out across instances when configured
	var (
		redisClient *redis.Client
		broker      realtime.Broker = realtime.NewLocalBroker()
	)
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		broker = realtime.NewRedisBroker(redisClient)
		slog.Info("socket fan-out via redis", "addr", cfg.RedisAddr, "channel", realtime.RedisChannel)
	}

	hub := realtime.NewHub(conversationService, broker)
	if err := hub.Start(); err != nil {
		slog.Error("socket hub start failed", "error", err)
		os.Exit(1)
	}
	notificationService.SetPublisher(hub)
	conversationService.SetPublisher(hub)

	socketServer := realtime.NewServer(hub, authService, cfg.SocketPath, cfg.CORSOrigins)

	// Handlers
	v := validation.New()
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService, store, v, cfg),
		Admin:         handlers.NewAdminHandler(userService, v),
		Health:        handlers.NewHealthHandler(database.Ping),
		Moderation:    handlers.NewModerationHandler(moderationService, v),
		VoiceNotes:    handlers.NewVoiceNoteHandler(voiceNoteService, store, cfg.MaxFileSize),
		Reactions:     handlers.NewReactionHandler(reactionService, v),
		Comments:      handlers.NewCommentHandler(commentService, v),
		Shares:        handlers.NewShareHandler(shareService, v),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Conversations: handlers.NewConversationHandler(conversationService, v),
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxFileSize + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(compress.New())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, h, userService)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		if err := socketServer.ListenAndServe(":" + cfg.SocketPort); err != nil {
			slog.Error("socket server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := socketServer.Shutdown(ctx); err != nil {
		slog.Error("socket server shutdown error", "error", err)
	}
	cancel()

	if err := hub.Shutdown(shutdownTimeout); err != nil {
		slog.Error("socket hub shutdown error", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = fiber.StatusNotFound
		message = "Resource not found"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		code = fiber.StatusConflict
		message = "Resource already exists"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		code = fiber.StatusBadRequest
		message = "Referenced resource does not exist"
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"request_id", c.Locals("requestid"),
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
