package dto

import "github.com/google/uuid"

type CreateReportRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=user fortune"`
	ContentID   string `json:"content_id" validate:"required,max=255"`
	Reason      string `json:"reason" validate:"required,max=500"`
}

type ActionReportRequest struct {
	Status    string `json:"status" validate:"required,oneof=reviewed actioned dismissed"`
	AdminNote string `json:"admin_note" validate:"max=1000"`
}

type BlockUserRequest struct {
	BlockedID uuid.UUID `json:"blocked_id" validate:"required"`
}
