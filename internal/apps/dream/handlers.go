package dream

import (
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DreamHandler struct {
	service   *DreamService
	validator *validation.Validator
}

func NewDreamHandler(service *DreamService, v *validation.Validator) *DreamHandler {
	return &DreamHandler{service: service, validator: v}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func (h *DreamHandler) Interpret(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req InterpretRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}
	d, err := h.service.Interpret(c.UserContext(), userID, &req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *DreamHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page, limit, offset := handlers.Paging(c)
	items, total, err := h.service.List(c.UserContext(), userID, limit, offset)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if items == nil {
		items = []*Draw{}
	}
	return c.JSON(ListResponse{Draws: items, Total: total, Page: page, Limit: limit})
}

func (h *DreamHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid dream ID"})
	}

	d, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(d)
}

func (h *DreamHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid dream ID"})
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Symbols handles GET /symbols, the dictionary the interpreter matches.
func (h *DreamHandler) Symbols(c *fiber.Ctx) error {
	out := make([]Symbol, len(dictionary))
	for i, e := range dictionary {
		out[i] = Symbol{Name: e.name, Meaning: e.meaning}
	}
	return c.JSON(fiber.Map{"symbols": out})
}
