package handlers

import (
	"strconv"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const usersDefaultLimit = 10

type AdminHandler struct {
	userService *services.UserService
	validator   *validation.Validator
}

func NewAdminHandler(userService *services.UserService, v *validation.Validator) *AdminHandler {
	return &AdminHandler{userService: userService, validator: v}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	q := dto.UserListQuery{
		PageQuery: pageQuery(c, usersDefaultLimit),
		Search:    c.Query("search"),
		Status:    c.Query("status"),
	}

	users, total, err := h.userService.List(c.UserContext(), q)
	if err != nil {
		return serviceError(c, err, "Failed to fetch users")
	}
	return listJSON(c, "users", users, q.PageQuery, total, nil)
}

func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	adminID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var req dto.UpdateUserStatusRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	user, err := h.userService.SetActive(c.UserContext(), adminID, id, *req.IsActive)
	if err != nil {
		return serviceError(c, err, "Failed to update user status")
	}
	return c.JSON(user)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.userService.Stats(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Failed to fetch stats")
	}
	return c.JSON(stats)
}

func (h *AdminHandler) UsersOverTime(c *fiber.Ctx) error {
	series, err := h.userService.UsersOverTime(c.UserContext(), time.Now())
	if err != nil {
		return serviceError(c, err, "Failed to fetch stats")
	}
	return c.JSON(series)
}

func (h *AdminHandler) ActivityOverTime(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "days must be a positive integer")
	}

	series, err := h.userService.ActivityOverTime(c.UserContext(), time.Now(), days)
	if err != nil {
		return serviceError(c, err, "Failed to fetch stats")
	}
	return c.JSON(series)
}
