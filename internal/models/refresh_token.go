package models

import (
	"time"

	"github.com/google/uuid"
)

// Why a refresh token stopped working.
const (
	RevokeRotated       = "rotated"
	RevokeExpired       = "expired"
	RevokeLogout        = "logout"
	RevokePasswordReset = "password_reset"
	RevokeReused        = "reused"
)

// RefreshToken is a hashed, single-use refresh token. A rotated token that
// shows up again means a copy leaked, so every session of the account ends.
type RefreshToken struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash    string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	Revoked      bool      `gorm:"default:false" json:"revoked"`
	RevokeReason string    `gorm:"size:20" json:"revoke_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
