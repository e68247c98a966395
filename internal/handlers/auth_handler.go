package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/storage"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	store       FileStore
	validator   *validation.Validator
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService, store FileStore, v *validation.Validator, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, store: store, validator: v, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to register")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to login")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.userService.Get(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to load profile")
	}
	return c.JSON(user)
}

// UpdateMe accepts JSON or multipart; the multipart form may carry an avatar file.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	var avatarURL string
	if isMultipart(c) {
		if fh, err := c.FormFile("avatar"); err == nil {
			if err := checkImage(fh, h.cfg.MaxAvatarSize); err != nil {
				return errorJSON(c, fiber.StatusBadRequest, err.Error())
			}
			avatarURL, err = h.store.Save(fh, storage.DirAvatars, "avatar")
			if err != nil {
				return serviceError(c, err, "Failed to store avatar")
			}
		}
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, &req, avatarURL)
	if err != nil {
		if avatarURL != "" {
			h.store.RemoveQuietly(avatarURL)
		}
		return serviceError(c, err, "Failed to update profile")
	}
	return c.JSON(user)
}
