package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/gofiber/fiber/v2"
)

const notificationsDefaultLimit = 15

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	page := pageQuery(c, notificationsDefaultLimit)
	unreadOnly := c.Query("status") == "unread"

	items, total, unread, err := h.service.List(c.UserContext(), userID, unreadOnly, page)
	if err != nil {
		return serviceError(c, err, "Failed to fetch notifications")
	}
	return listJSON(c, "notifications", items, page, total, fiber.Map{"unread_count": unread})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := h.service.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to update notifications")
	}
	return c.JSON(fiber.Map{"updated": updated})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid notification ID")
	}

	n, err := h.service.MarkRead(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to update notification")
	}
	return c.JSON(n)
}
