package handlers

import (
	"strconv"
	"strings"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/storage"
	"github.com/gofiber/fiber/v2"
)

const feedDefaultLimit = 10

type VoiceNoteHandler struct {
	service     *services.VoiceNoteService
	store       FileStore
	maxFileSize int
}

func NewVoiceNoteHandler(service *services.VoiceNoteService, store FileStore, maxFileSize int) *VoiceNoteHandler {
	return &VoiceNoteHandler{service: service, store: store, maxFileSize: maxFileSize}
}

// Create handles the multipart upload: audio file, duration and optional description.
func (h *VoiceNoteHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "An audio file is required")
	}
	if err := checkAudio(fh, h.maxFileSize); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	audioURL, err := h.store.Save(fh, storage.DirVoiceNotes, "note")
	if err != nil {
		return serviceError(c, err, "Failed to store audio")
	}

	duration, err := strconv.Atoi(strings.TrimSpace(c.FormValue("duration")))
	if err != nil {
		h.store.RemoveQuietly(audioURL)
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidDuration.Error())
	}

	note, err := h.service.Create(c.UserContext(), userID, audioURL, duration, c.FormValue("description"))
	if err != nil {
		h.store.RemoveQuietly(audioURL)
		return serviceError(c, err, "Failed to create voice note")
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *VoiceNoteHandler) Feed(c *fiber.Ctx) error {
	q := feedQuery(c)
	notes, total, err := h.service.Feed(c.UserContext(), q)
	if err != nil {
		return serviceError(c, err, "Failed to fetch voice notes")
	}
	return listJSON(c, "voice_notes", notes, q.PageQuery, total, nil)
}

func (h *VoiceNoteHandler) MyNotes(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	q := feedQuery(c)
	notes, total, err := h.service.ListByUser(c.UserContext(), userID, q)
	if err != nil {
		return serviceError(c, err, "Failed to fetch voice notes")
	}
	return listJSON(c, "voice_notes", notes, q.PageQuery, total, nil)
}

func (h *VoiceNoteHandler) Get(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid voice note ID")
	}

	note, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "Failed to fetch voice note")
	}
	return c.JSON(note)
}

func (h *VoiceNoteHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid voice note ID")
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return serviceError(c, err, "Failed to delete voice note")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func feedQuery(c *fiber.Ctx) dto.FeedQuery {
	sortBy := c.Query("sort_by", services.SortCreatedAt)
	if sortBy != services.SortReactionCount {
		sortBy = services.SortCreatedAt
	}
	return dto.FeedQuery{
		PageQuery: pageQuery(c, feedDefaultLimit),
		SortBy:    sortBy,
		Order:     c.Query("order", "desc"),
		Search:    c.Query("search"),
	}
}
