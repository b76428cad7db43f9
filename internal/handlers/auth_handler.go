package handlers

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	validator   *validation.Validator
	defaultLoc  *time.Location
}

func NewAuthHandler(authService *services.AuthService, v *validation.Validator, defaultLoc *time.Location) *AuthHandler {
	return &AuthHandler{authService: authService, validator: v, defaultLoc: defaultLoc}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	resp, err := h.authService.Register(c.UserContext(), &req, Location(c, req.Timezone, h.defaultLoc))
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), &req, Location(c, req.Timezone, h.defaultLoc))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) LoginAnonymously(c *fiber.Ctx) error {
	var req dto.AnonymousLoginRequest
	if len(c.Body()) > 0 {
		if err := Bind(c, h.validator, &req); err != nil {
			return RespondError(c, err)
		}
	}

	resp, err := h.authService.LoginAnonymously(c.UserContext(), &req, Location(c, req.Timezone, h.defaultLoc))
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) LinkEmail(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.LinkEmailRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	resp, err := h.authService.LinkEmail(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return RespondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "If that email is registered, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.DeleteAccountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	if err := h.authService.DeleteAccount(c.UserContext(), userID, req.Password); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
