package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
	validator         *validation.Validator
}

func NewModerationHandler(moderationService *services.ModerationService, v *validation.Validator) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, validator: v}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), userID, &req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) BlockUser(c *fiber.Ctx) error {
	blockerID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BlockUserRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	if err := h.moderationService.BlockUser(c.UserContext(), blockerID, req.BlockedID); err != nil {
		if errors.Is(err, services.ErrSelfBlock) || errors.Is(err, services.ErrAlreadyBlocked) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *ModerationHandler) UnblockUser(c *fiber.Ctx) error {
	blockerID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	blockedID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.moderationService.UnblockUser(c.UserContext(), blockerID, blockedID); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	page, limit, offset := Paging(c)

	reports, total, err := h.moderationService.ListReports(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *ModerationHandler) ActionReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.ActionReportRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	if err := h.moderationService.ActionReport(c.UserContext(), reportID, &req); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report updated successfully"})
}
