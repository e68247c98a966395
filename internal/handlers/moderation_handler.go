package handlers

import (
	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const reportsDefaultLimit = 10

type ModerationHandler struct {
	moderationService *services.ModerationService
	validator         *validation.Validator
}

func NewModerationHandler(moderationService *services.ModerationService, v *validation.Validator) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, validator: v}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create report")
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	q := dto.ReportListQuery{
		PageQuery: pageQuery(c, reportsDefaultLimit),
		Status:    c.Query("status"),
		SortBy:    c.Query("sort_by", "created_at"),
		Order:     c.Query("order", "desc"),
	}

	reports, total, err := h.moderationService.ListReports(c.UserContext(), q)
	if err != nil {
		return serviceError(c, err, "Failed to fetch reports")
	}
	return listJSON(c, "reports", reports, q.PageQuery, total, nil)
}

func (h *ModerationHandler) UpdateReport(c *fiber.Ctx) error {
	adminID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	reportID, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	var req dto.UpdateReportRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	report, err := h.moderationService.UpdateReport(c.UserContext(), adminID, reportID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update report")
	}
	return c.JSON(report)
}

// RemoveContent handles DELETE /api/auth/admin/content/:type/:id.
func (h *ModerationHandler) RemoveContent(c *fiber.Ctx) error {
	adminID, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	contentType := c.Params("type")
	if contentType != services.ContentTypeVoiceNote && contentType != services.ContentTypeComment {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidContentType.Error())
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid content ID")
	}

	resolved, err := h.moderationService.RemoveContent(c.UserContext(), adminID, contentType, id)
	if err != nil {
		return serviceError(c, err, "Failed to remove content")
	}
	return c.JSON(fiber.Map{
		"message":          "Content removed successfully",
		"resolved_reports": resolved,
	})
}
