package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/ads"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type KarmaHandler struct {
	ledger    *karma.Ledger
	rewarded  *ads.Rewarded
	validator *validation.Validator
}

func NewKarmaHandler(ledger *karma.Ledger, rewarded *ads.Rewarded, v *validation.Validator) *KarmaHandler {
	return &KarmaHandler{ledger: ledger, rewarded: rewarded, validator: v}
}

// Balance handles GET /karma.
func (h *KarmaHandler) Balance(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	balance, err := h.ledger.Balance(c.UserContext(), userID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.KarmaBalanceResponse{Balance: balance})
}

// History handles GET /karma/history, newest first.
func (h *KarmaHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page, limit, offset := Paging(c)
	entries, err := h.ledger.History(c.UserContext(), userID, limit, offset)
	if err != nil {
		return RespondError(c, err)
	}

	out := make([]dto.KarmaTransactionResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.KarmaTransactionResponse{
			ID:        e.ID,
			Amount:    e.Amount,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		}
	}
	return c.JSON(dto.KarmaHistoryResponse{Transactions: out, Page: page, Limit: limit})
}

// WatchAd handles POST /karma/ad. The request is held for the simulated ad
// duration.
func (h *KarmaHandler) WatchAd(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	res, err := h.rewarded.Watch(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ads.ErrDailyCapReached) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return RespondError(c, err)
	}
	return c.JSON(res)
}

// AdStatus handles GET /karma/ad.
func (h *KarmaHandler) AdStatus(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	left, err := h.rewarded.Remaining(c.UserContext(), userID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"remaining_today": left})
}

// Adjust handles POST /admin/karma (admin only).
func (h *KarmaHandler) Adjust(c *fiber.Ctx) error {
	var req dto.AdminKarmaAdjustRequest
	if err := Bind(c, h.validator, &req); err != nil {
		return RespondError(c, err)
	}

	balance, err := h.ledger.Adjust(c.UserContext(), req.UserID, req.Amount, "admin: "+req.Reason)
	if errors.Is(err, karma.ErrHistoryNotRecorded) {
		// The balance committed; a retry would apply the change twice.
		slog.Warn("admin karma adjust committed without history",
			"user_id", req.UserID.String(),
			"amount", req.Amount,
			"balance", balance,
			"error", err,
		)
		err = nil
	}
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.KarmaBalanceResponse{Balance: balance})
}
