package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type ReactionHandler struct {
	service   *services.ReactionService
	validator *validation.Validator
}

func NewReactionHandler(service *services.ReactionService, v *validation.Validator) *ReactionHandler {
	return &ReactionHandler{service: service, validator: v}
}

// Upsert answers 201 when the reaction is new and 200 when the emoji changed.
func (h *ReactionHandler) Upsert(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateReactionRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	reactions, created, err := h.service.Upsert(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to save reaction")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.ReactionsResponse{Reactions: reactions})
}

func (h *ReactionHandler) Remove(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid reaction ID")
	}

	reactions, err := h.service.Remove(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to remove reaction")
	}
	return c.JSON(dto.ReactionsResponse{Reactions: reactions})
}

func (h *ReactionHandler) ForVoiceNote(c *fiber.Ctx) error {
	noteID, ok := paramUUID(c, "voiceNoteId")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid voice note ID")
	}

	reactions, err := h.service.ForNote(c.UserContext(), noteID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch reactions")
	}
	grouped, err := h.service.Grouped(c.UserContext(), noteID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch reactions")
	}
	return c.JSON(dto.ReactionsResponse{Reactions: reactions, Grouped: grouped})
}
