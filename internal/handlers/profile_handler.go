package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/activity"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/zodiac"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	authService *services.AuthService
	checkIns    *activity.CheckIns
	validator   *validation.Validator
	defaultLoc  *time.Location
}

func NewProfileHandler(authService *services.AuthService, checkIns *activity.CheckIns, v *validation.Validator, defaultLoc *time.Location) *ProfileHandler {
	return &ProfileHandler{authService: authService, checkIns: checkIns, validator: v, defaultLoc: defaultLoc}
}

// Me handles GET /me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.authService.GetUser(c.UserContext(), userID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(services.UserResponse(user))
}

// Update handles PATCH /me.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(services.UserResponse(user))
}

// Activity handles GET /me/activity: the check-in calendar and streak.
func (h *ProfileHandler) Activity(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx := c.UserContext()
	loc := Location(c, "", h.defaultLoc)

	days := c.QueryInt("days", 35)
	dates, err := h.checkIns.Recent(ctx, userID, days, loc)
	if err != nil {
		return RespondError(c, err)
	}
	streak, err := h.checkIns.Streak(ctx, userID, loc)
	if err != nil {
		return RespondError(c, err)
	}
	_, today, err := h.checkIns.Today(ctx, userID, loc)
	if err != nil {
		return RespondError(c, err)
	}
	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		return RespondError(c, err)
	}

	if dates == nil {
		dates = []string{}
	}
	return c.JSON(dto.ActivityResponse{
		Today:   today,
		Streak:  streak,
		Dates:   dates,
		Days:    days,
		Balance: user.KarmaBalance,
	})
}

// CheckIn handles POST /me/check-in for clients that stay signed in across
// days and never hit the login endpoint.
func (h *ProfileHandler) CheckIn(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	created, err := h.checkIns.RecordLogin(c.UserContext(), userID, Location(c, "", h.defaultLoc))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"new_day": created})
}

// Zodiac handles GET /zodiac/:sign (public).
func Zodiac(c *fiber.Ctx) error {
	if c.Params("sign") == "" {
		return c.JSON(zodiac.All())
	}
	sign, err := zodiac.Parse(c.Params("sign"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	p, _ := zodiac.ProfileOf(sign)
	return c.JSON(p)
}
