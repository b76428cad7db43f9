package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProviderEmail     = "email"
	ProviderAnonymous = "anonymous"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account every fortune, dream draw, karma entry and activity
// marker hangs off. A nil Email marks a guest created by anonymous sign-in.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName  string     `gorm:"size:100" json:"display_name"`
	Email        *string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Password     string     `json:"-"`
	Role         string     `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider string     `gorm:"size:50;default:'email'" json:"auth_provider"`
	KarmaBalance int64      `gorm:"not null;default:0;check:chk_users_karma_non_negative,karma_balance >= 0" json:"karma_balance"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsGuest reports whether the account was created without credentials.
func (u *User) IsGuest() bool {
	return u.Email == nil || *u.Email == ""
}
