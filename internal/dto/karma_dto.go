package dto

import (
	"time"

	"github.com/google/uuid"
)

type KarmaBalanceResponse struct {
	Balance int64 `json:"balance"`
}

type KarmaTransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type KarmaHistoryResponse struct {
	Transactions []KarmaTransactionResponse `json:"transactions"`
	Page         int                        `json:"page"`
	Limit        int                        `json:"limit"`
}

type AdminKarmaAdjustRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Amount int64     `json:"amount" validate:"required"`
	Reason string    `json:"reason" validate:"required,max=200"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	BirthDate   *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ActivityResponse struct {
	Today   bool     `json:"checked_in_today"`
	Streak  int      `json:"streak"`
	Dates   []string `json:"dates"`
	Days    int      `json:"days"`
	Balance int64    `json:"balance"`
}
