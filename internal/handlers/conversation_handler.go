package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const (
	conversationsDefaultLimit = 15
	messagesDefaultLimit      = 30
)

type ConversationHandler struct {
	service   *services.ConversationService
	validator *validation.Validator
}

func NewConversationHandler(service *services.ConversationService, v *validation.Validator) *ConversationHandler {
	return &ConversationHandler{service: service, validator: v}
}

// Create answers 200 with an existing 1:1 conversation or 201 with a new one.
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateConversationRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	conversation, created, err := h.service.Create(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create conversation")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(conversation)
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	page := pageQuery(c, conversationsDefaultLimit)
	conversations, total, err := h.service.List(c.UserContext(), userID, page)
	if err != nil {
		return serviceError(c, err, "Failed to fetch conversations")
	}
	return listJSON(c, "conversations", conversations, page, total, nil)
}

func (h *ConversationHandler) FindUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	users, err := h.service.FindUsers(c.UserContext(), userID, c.Query("search"))
	if err != nil {
		return serviceError(c, err, "Failed to search users")
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *ConversationHandler) Messages(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	conversationID, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	page := pageQuery(c, messagesDefaultLimit)
	messages, total, err := h.service.Messages(c.UserContext(), userID, conversationID, page)
	if err != nil {
		return serviceError(c, err, "Failed to fetch messages")
	}
	return listJSON(c, "messages", messages, page, total, nil)
}

func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	conversationID, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	var req dto.SendMessageRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	message, err := h.service.SendMessage(c.UserContext(), userID, conversationID, req.Content)
	if err != nil {
		return serviceError(c, err, "Failed to send message")
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}
