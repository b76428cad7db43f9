package fortune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/zodiac"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

var (
	ErrFortuneNotFound  = apperr.NotFound("fortune not found")
	ErrSharedNotFound   = apperr.NotFound("shared fortune not found")
	ErrInvalidType      = apperr.Validation("unknown fortune type")
	ErrUnsupportedImage = apperr.Validation("only JPEG, PNG, WebP and HEIC images are supported")
	ErrPhotoNotAccepted = apperr.Validation("only coffee, palm and face readings take a photo")
	ErrAlreadyLiked     = apperr.Validation("fortune already liked")
)

const shareCodeLength = 10

// Share codes avoid characters that are easy to misread.
const shareAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// CostSource reads integer settings; *services.RemoteConfigService satisfies it.
type CostSource interface {
	Int(ctx context.Context, key string, fallback int64) int64
}

// ContentFilter screens shared notes and knows who blocked whom.
type ContentFilter interface {
	FilterContent(text string) (bool, string)
	GetRejectionMessage(reason string) string
	GetBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Upload is a photo attached to a new reading.
type Upload struct {
	Data        []byte
	ContentType string
}

type ServiceDeps struct {
	Ledger  apps.Adjuster
	Objects storage.ObjectStore
	Costs   CostSource
	Filter  ContentFilter
	Picker  Picker
	Now     func() time.Time
}

type FortuneService struct {
	db       *gorm.DB
	fortunes *records.Store[Fortune, *Fortune]
	likes    *records.Store[Like, *Like]
	ledger   apps.Adjuster
	objects  storage.ObjectStore
	costs    CostSource
	filter   ContentFilter
	picker   Picker
	now      func() time.Time
}

func NewFortuneService(db *gorm.DB, deps ServiceDeps) *FortuneService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	picker := deps.Picker
	if picker == nil {
		picker = globalPicker{}
	}
	return &FortuneService{
		db:       db,
		fortunes: records.New[Fortune](db, records.WithClock(now)),
		likes:    records.New[Like](db, records.WithClock(now)),
		ledger:   deps.Ledger,
		objects:  deps.Objects,
		costs:    deps.Costs,
		filter:   deps.Filter,
		picker:   picker,
		now:      now,
	}
}

// Cost returns the karma price of a reading type. Negative settings count as
// free.
func (s *FortuneService) Cost(ctx context.Context, typ string) int64 {
	fallback := DefaultCosts[typ]
	if s.costs == nil {
		return fallback
	}
	if n := s.costs.Int(ctx, "fortune_cost_"+typ, fallback); n > 0 {
		return n
	}
	return 0
}

func (s *FortuneService) Costs(ctx context.Context) map[string]int64 {
	out := make(map[string]int64, len(Types))
	for _, t := range Types {
		out[t] = s.Cost(ctx, t)
	}
	return out
}

// Create charges the reading's cost, stores the optional photo and persists a
// generated reading. If anything after the charge fails, the karma is
// refunded and the photo removed.
func (s *FortuneService) Create(ctx context.Context, userID uuid.UUID, req *CreateRequest, img *Upload) (*Fortune, error) {
	if !validType(req.Type) {
		return nil, ErrInvalidType
	}
	var ext string
	if img != nil {
		if !photoTypes[req.Type] {
			return nil, ErrPhotoNotAccepted
		}
		var ok bool
		if ext, ok = imageExt[strings.ToLower(img.ContentType)]; !ok {
			return nil, ErrUnsupportedImage
		}
	}

	var user models.User
	err := s.db.WithContext(ctx).Select("id", "birth_date").Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: account %s", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return nil, apperr.Transport(err)
	}

	cost := s.Cost(ctx, req.Type)
	refund, err := apps.Charge(ctx, s.ledger, userID, cost, req.Type)
	if err != nil {
		return nil, err
	}

	subject := Subject{Type: req.Type, Question: req.Question, Day: s.now()}
	if user.BirthDate != nil {
		subject.Sign = zodiac.SignFor(*user.BirthDate)
	}
	reading := Generate(s.picker, subject)
	f := &Fortune{
		Type:        req.Type,
		Title:       reading.Title,
		Description: reading.Description,
		Result:      &reading.Result,
		Question:    strings.TrimSpace(req.Question),
		Cost:        cost,
	}

	if img != nil {
		path := fmt.Sprintf("fortunes/%s/%s%s", userID, uuid.NewString(), ext)
		url, err := s.objects.Put(ctx, path, img.Data, strings.ToLower(img.ContentType))
		if err != nil {
			refund()
			return nil, apperr.Transport(fmt.Errorf("failed to store image: %w", err))
		}
		f.ImagePath, f.ImageURL = path, url
	}

	if _, err := s.fortunes.Create(ctx, userID, f); err != nil {
		refund()
		s.removeImage(ctx, f.ImagePath)
		return nil, err
	}

	slog.Info("fortune created",
		"user_id", userID.String(),
		"fortune_id", f.ID.String(),
		"type", f.Type,
		"cost", cost,
	)
	return f, nil
}

func (s *FortuneService) List(ctx context.Context, userID uuid.UUID, orderBy string, desc bool, limit, offset int) ([]*Fortune, int64, error) {
	if orderBy == "" {
		orderBy, desc = "created_at", true
	}
	items, err := s.fortunes.Page(ctx, userID, orderBy, desc, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.fortunes.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *FortuneService) Get(ctx context.Context, userID, id uuid.UUID) (*Fortune, error) {
	f, found, err := s.fortunes.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrFortuneNotFound
	}
	return f, nil
}

func (s *FortuneService) Update(ctx context.Context, userID, id uuid.UUID, req *UpdateRequest) (*Fortune, error) {
	fields := map[string]any{}
	if req.IsFavorite != nil {
		fields["is_favorite"] = *req.IsFavorite
	}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	if err := s.fortunes.Update(ctx, userID, id, fields); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrFortuneNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// ToggleFavorite flips is_favorite and returns the new value.
func (s *FortuneService) ToggleFavorite(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return false, err
	}
	fav := !f.IsFavorite
	if err := s.fortunes.Update(ctx, userID, id, map[string]any{"is_favorite": fav}); err != nil {
		return false, err
	}
	return fav, nil
}

// Delete removes the fortune, the likes it received and its photo.
func (s *FortuneService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fortune_id = ?", id).Delete(&Like{}).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&Fortune{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrFortuneNotFound
		}
		return nil
	})
	if err != nil {
		return apperr.Transport(err)
	}
	s.removeImage(ctx, f.ImagePath)
	return nil
}

// Share publishes the fortune under a short code. Sharing again keeps the
// code and replaces the note.
func (s *FortuneService) Share(ctx context.Context, userID, id uuid.UUID, note string) (*Fortune, error) {
	note = strings.TrimSpace(note)
	if s.filter != nil {
		if ok, reason := s.filter.FilterContent(note); !ok {
			return nil, apperr.Validation(s.filter.GetRejectionMessage(reason))
		}
	}

	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"share_note": note, "is_shared": true}
	if f.ShareCode == nil {
		code, err := gonanoid.Generate(shareAlphabet, shareCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate share code: %w", err)
		}
		fields["share_code"] = code
	}
	if f.SharedAt == nil {
		fields["shared_at"] = s.now()
	}
	if err := s.fortunes.Update(ctx, userID, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Unshare hides the fortune from the feed and its link. The code is kept so
// a later share restores the same link.
func (s *FortuneService) Unshare(ctx context.Context, userID, id uuid.UUID) error {
	err := s.fortunes.Update(ctx, userID, id, map[string]any{"is_shared": false})
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrFortuneNotFound
	}
	return err
}

// GetShared returns the public view of a shared fortune.
func (s *FortuneService) GetShared(ctx context.Context, code string) (*SharedResponse, error) {
	var f Fortune
	err := s.db.WithContext(ctx).
		Where("share_code = ? AND is_shared = ?", code, true).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSharedNotFound
	}
	if err != nil {
		return nil, apperr.Transport(err)
	}
	out, err := s.sharedViews(ctx, []Fortune{f})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Feed lists shared fortunes newest first, leaving out authors the viewer
// has blocked.
func (s *FortuneService) Feed(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]SharedResponse, error) {
	q := s.db.WithContext(ctx).Where("is_shared = ?", true)
	if s.filter != nil {
		blocked, err := s.filter.GetBlockedIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if len(blocked) > 0 {
			q = q.Where("user_id NOT IN ?", blocked)
		}
	}
	var items []Fortune
	if err := q.Order("shared_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, apperr.Transport(err)
	}
	return s.sharedViews(ctx, items)
}

// Like records one like per account on a shared fortune and returns the new
// like count.
func (s *FortuneService) Like(ctx context.Context, userID, fortuneID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f Fortune
		err := tx.Select("id", "like_count").Where("id = ? AND is_shared = ?", fortuneID, true).Take(&f).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSharedNotFound
		}
		if err != nil {
			return apperr.Transport(err)
		}

		var n int64
		if err := tx.Model(&Like{}).Where("user_id = ? AND fortune_id = ?", userID, fortuneID).Count(&n).Error; err != nil {
			return apperr.Transport(err)
		}
		if n > 0 {
			return ErrAlreadyLiked
		}
		if err := s.addLikeTx(ctx, tx, userID, fortuneID); err != nil {
			return err
		}
		count = f.LikeCount + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// addLikeTx inserts the like and bumps the counter. A concurrent like by the
// same account that slipped past the count check trips the unique index.
func (s *FortuneService) addLikeTx(ctx context.Context, tx *gorm.DB, userID, fortuneID uuid.UUID) error {
	if _, err := s.likes.CreateTx(ctx, tx, userID, &Like{FortuneID: fortuneID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return err
	}
	if err := tx.WithContext(ctx).Model(&Fortune{}).Where("id = ?", fortuneID).
		UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		return apperr.Transport(err)
	}
	return nil
}

// PurgeAccountTx removes the account's likes and fortunes inside the account
// deletion transaction and returns the photo paths to delete afterwards.
func (s *FortuneService) PurgeAccountTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	tx = tx.WithContext(ctx)

	var liked []uuid.UUID
	if err := tx.Model(&Like{}).Where("user_id = ?", userID).Pluck("fortune_id", &liked).Error; err != nil {
		return nil, apperr.Transport(err)
	}
	if len(liked) > 0 {
		if err := tx.Model(&Fortune{}).Where("id IN ?", liked).
			UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
			return nil, apperr.Transport(err)
		}
	}
	if err := tx.Where("user_id = ?", userID).Delete(&Like{}).Error; err != nil {
		return nil, apperr.Transport(err)
	}

	owned := tx.Model(&Fortune{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("fortune_id IN (?)", owned).Delete(&Like{}).Error; err != nil {
		return nil, apperr.Transport(err)
	}

	var paths []string
	if err := tx.Model(&Fortune{}).Where("user_id = ? AND image_path <> ''", userID).Pluck("image_path", &paths).Error; err != nil {
		return nil, apperr.Transport(err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&Fortune{}).Error; err != nil {
		return nil, apperr.Transport(err)
	}
	return paths, nil
}

func (s *FortuneService) sharedViews(ctx context.Context, items []Fortune) ([]SharedResponse, error) {
	out := make([]SharedResponse, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, f := range items {
		ids = append(ids, f.UserID)
	}
	var authors []models.User
	if err := s.db.WithContext(ctx).Select("id", "display_name").Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, apperr.Transport(err)
	}
	names := make(map[uuid.UUID]string, len(authors))
	for _, u := range authors {
		names[u.ID] = u.DisplayName
	}
	for _, f := range items {
		name := names[f.UserID]
		if name == "" {
			name = "Anonymous"
		}
		code := ""
		if f.ShareCode != nil {
			code = *f.ShareCode
		}
		out = append(out, SharedResponse{
			ID: f.ID, Type: f.Type, Title: f.Title, Description: f.Description,
			Result: f.Result, ImageURL: f.ImageURL, ShareCode: code, Note: f.ShareNote,
			AuthorName: name, LikeCount: f.LikeCount, SharedAt: f.SharedAt,
		})
	}
	return out, nil
}

func (s *FortuneService) removeImage(ctx context.Context, path string) {
	if path == "" || s.objects == nil {
		return
	}
	if err := s.objects.Delete(context.WithoutCancel(ctx), path); err != nil {
		slog.Warn("failed to delete fortune image", "path", path, "error", err)
	}
}
