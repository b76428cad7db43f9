package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// RespondError maps the error taxonomy onto HTTP. Server-side failures are
// logged and reported with a generic message.
func RespondError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Fields: verr.Fields,
		})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, apperr.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{Error: true, Message: "Not enough karma"})
	case errors.Is(err, apperr.ErrAuth):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, apperr.ErrTransport):
		slog.Error("backend unavailable", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: true, Message: "Service temporarily unavailable"})
	}
	slog.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

// Bind parses the JSON body into req and validates it.
func Bind(c *fiber.Ctx, v *validation.Validator, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if v == nil {
		return nil
	}
	return v.Validate(req)
}

// Paging reads page/limit query parameters, clamping limit to [1, 100].
func Paging(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

// Location resolves the caller's zone from the X-Timezone header, then the
// given name, then fallback.
func Location(c *fiber.Ctx, name string, fallback *time.Location) *time.Location {
	for _, n := range []string{c.Get("X-Timezone"), name} {
		if n == "" {
			continue
		}
		if loc, err := time.LoadLocation(n); err == nil {
			return loc
		}
		// Accept a raw offset in minutes, e.g. "180".
		if mins, err := strconv.Atoi(n); err == nil && mins >= -14*60 && mins <= 14*60 {
			return time.FixedZone("UTC"+strconv.Itoa(mins/60), mins*60)
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
