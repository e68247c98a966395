package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const sharesDefaultLimit = 10

type ShareHandler struct {
	service   *services.ShareService
	validator *validation.Validator
}

func NewShareHandler(service *services.ShareService, v *validation.Validator) *ShareHandler {
	return &ShareHandler{service: service, validator: v}
}

func (h *ShareHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateShareRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	share, err := h.service.Create(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to share voice note")
	}
	return c.Status(fiber.StatusCreated).JSON(share)
}

func (h *ShareHandler) ForVoiceNote(c *fiber.Ctx) error {
	noteID, ok := paramUUID(c, "voiceNoteId")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid voice note ID")
	}

	page := pageQuery(c, sharesDefaultLimit)
	shares, total, err := h.service.ForNote(c.UserContext(), noteID, page)
	if err != nil {
		return serviceError(c, err, "Failed to fetch shares")
	}
	return listJSON(c, "shares", shares, page, total, nil)
}
