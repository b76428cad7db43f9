package fortune

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reading types.
const (
	TypeTarot     = "tarot"
	TypeCoffee    = "coffee"
	TypeAstrology = "astrology"
	TypeLove      = "love"
	TypeDaily     = "daily"
	TypeDream     = "dream"
	TypePalm      = "palm"
	TypeFace      = "face"
)

// Types lists every reading type in display order.
var Types = []string{TypeTarot, TypeCoffee, TypeAstrology, TypeLove, TypeDaily, TypeDream, TypePalm, TypeFace}

// DefaultCosts is the karma price of each type when remote config has no
// fortune_cost_<type> key.
var DefaultCosts = map[string]int64{
	TypeTarot:     10,
	TypeCoffee:    15,
	TypeAstrology: 5,
	TypeLove:      10,
	TypeDaily:     0,
	TypeDream:     5,
	TypePalm:      15,
	TypeFace:      15,
}

// photoTypes are read from an uploaded picture.
var photoTypes = map[string]bool{TypeCoffee: true, TypePalm: true, TypeFace: true}

func validType(t string) bool {
	_, ok := DefaultCosts[t]
	return ok
}

// Fortune is one generated reading.
type Fortune struct {
	records.Base
	Type        string     `gorm:"size:20;not null;index" json:"type"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Result      *string    `gorm:"type:text" json:"result,omitempty"`
	Question    string     `gorm:"size:500" json:"question,omitempty"`
	IsFavorite  bool       `gorm:"not null;default:false" json:"is_favorite"`
	ImagePath   string     `gorm:"size:255" json:"-"`
	ImageURL    string     `gorm:"type:text" json:"image_url,omitempty"`
	Cost        int64      `gorm:"not null;default:0" json:"cost"`
	IsShared    bool       `gorm:"not null;default:false;index" json:"is_shared"`
	ShareCode   *string    `gorm:"size:21;uniqueIndex" json:"share_code,omitempty"`
	ShareNote   string     `gorm:"size:280" json:"share_note,omitempty"`
	SharedAt    *time.Time `gorm:"index" json:"shared_at,omitempty"`
	LikeCount   int64      `gorm:"not null;default:0" json:"like_count"`
}

func (Fortune) TableName() string {
	return "fortunes"
}

// Like is one account's like on a shared fortune. It is owned by the liker.
type Like struct {
	records.Base
	FortuneID uuid.UUID `gorm:"type:uuid;not null;index" json:"fortune_id"`
}

func (Like) TableName() string {
	return "fortune_likes"
}

// PostMigrate adds the one-like-per-account constraint over the embedded
// user_id column.
func (Like) PostMigrate(db *gorm.DB) error {
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_fortune_likes_user_fortune ON fortune_likes (user_id, fortune_id)").Error
}

// --- DTOs ---

type CreateRequest struct {
	Type     string `json:"type" form:"type" validate:"required,oneof=tarot coffee astrology love daily dream palm face"`
	Question string `json:"question" form:"question" validate:"max=500"`
}

type UpdateRequest struct {
	IsFavorite *bool   `json:"is_favorite,omitempty"`
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
}

type ShareRequest struct {
	Note string `json:"note" validate:"max=280"`
}

type ListResponse struct {
	Fortunes []*Fortune `json:"fortunes"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// SharedResponse is the public view of a shared fortune; it leaves out the
// owner and anything private.
type SharedResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Result      *string    `json:"result,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	ShareCode   string     `json:"share_code"`
	Note        string     `json:"note,omitempty"`
	AuthorName  string     `json:"author_name"`
	LikeCount   int64      `json:"like_count"`
	SharedAt    *time.Time `json:"shared_at"`
}

type CostsResponse struct {
	Costs map[string]int64 `json:"costs"`
}
