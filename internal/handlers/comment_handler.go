package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	service   *services.CommentService
	validator *validation.Validator
}

func NewCommentHandler(service *services.CommentService, v *validation.Validator) *CommentHandler {
	return &CommentHandler{service: service, validator: v}
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateCommentRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	comment, err := h.service.Create(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create comment")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) ForVoiceNote(c *fiber.Ctx) error {
	noteID, ok := paramUUID(c, "voiceNoteId")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid voice note ID")
	}

	comments, err := h.service.ForNote(c.UserContext(), noteID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch comments")
	}
	return c.JSON(fiber.Map{"comments": comments})
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid comment ID")
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return serviceError(c, err, "Failed to delete comment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
