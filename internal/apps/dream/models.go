package dream

import (
	"encoding/json"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"gorm.io/datatypes"
)

// Draw is one interpreted dream.
type Draw struct {
	records.Base
	Text           string         `gorm:"type:text;not null" json:"text"`
	Mood           string         `gorm:"size:20" json:"mood,omitempty"`
	Symbols        datatypes.JSON `json:"symbols"`
	Interpretation string         `gorm:"type:text" json:"interpretation"`
	Cost           int64          `gorm:"not null;default:0" json:"cost"`
}

func (Draw) TableName() string {
	return "dream_draws"
}

// SymbolList decodes the stored symbols.
func (d *Draw) SymbolList() []Symbol {
	var out []Symbol
	if len(d.Symbols) == 0 {
		return out
	}
	_ = json.Unmarshal(d.Symbols, &out)
	return out
}

// --- DTOs ---

type InterpretRequest struct {
	Text string `json:"text" validate:"required,min=10,max=4000"`
	Mood string `json:"mood" validate:"omitempty,oneof=calm happy anxious scared sad confused"`
}

type ListResponse struct {
	Draws []*Draw `json:"draws"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
