package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/identity"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxPageLimit = 100

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// bind parses the body into dst and validates it. When ok is false the error
// response has already been written and err is the write result.
func bind(c *fiber.Ctx, v *validation.Validator, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := v.Validate(dst); len(errs) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Errors: errs,
		})
	}
	return true, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	return identity.GetUserID(c)
}

func unauthorized(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// pageQuery reads page and limit, clamping page to 1 and limit to 1..100.
func pageQuery(c *fiber.Ctx, defaultLimit int) dto.PageQuery {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return dto.PageQuery{Page: page, Limit: limit}
}

func listJSON(c *fiber.Ctx, key string, items interface{}, page dto.PageQuery, total int64, extra fiber.Map) error {
	data := fiber.Map{
		key:          items,
		"pagination": dto.NewPagination(page.Page, page.Limit, total),
	}
	for k, v := range extra {
		data[k] = v
	}
	return c.JSON(fiber.Map{"data": data})
}

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrVoiceNoteNotFound, fiber.StatusNotFound},
	{services.ErrReactionNotFound, fiber.StatusNotFound},
	{services.ErrCommentNotFound, fiber.StatusNotFound},
	{services.ErrReportNotFound, fiber.StatusNotFound},
	{services.ErrNotificationNotFound, fiber.StatusNotFound},
	{services.ErrConversationNotFound, fiber.StatusNotFound},
	{services.ErrParticipantNotFound, fiber.StatusNotFound},
	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrNotParticipant, fiber.StatusForbidden},
	{services.ErrAccountDisabled, fiber.StatusForbidden},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrUsernameTaken, fiber.StatusConflict},
	{services.ErrDuplicateReport, fiber.StatusConflict},
	{services.ErrInvalidTransition, fiber.StatusConflict},
	{services.ErrInvalidInput, fiber.StatusBadRequest},
	{services.ErrInvalidDuration, fiber.StatusBadRequest},
	{services.ErrInvalidStatus, fiber.StatusBadRequest},
	{services.ErrResolutionRequired, fiber.StatusBadRequest},
	{services.ErrInvalidContentType, fiber.StatusBadRequest},
	{services.ErrTooFewParticipants, fiber.StatusBadRequest},
	{services.ErrEmptyMessage, fiber.StatusBadRequest},
	{services.ErrMessageTooLong, fiber.StatusBadRequest},
	{services.ErrEmptySearch, fiber.StatusBadRequest},
}

// serviceError maps service sentinels to HTTP statuses. Anything unknown is
// logged and reported as a 500 with fallback as the message.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return errorJSON(c, m.status, m.err.Error())
		}
	}
	slog.Error(fallback,
		"request_id", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return errorJSON(c, fiber.StatusInternalServerError, fallback)
}
