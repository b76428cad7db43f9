// Package activity records which calendar days an account was active on.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dateLayout    = "2006-01-02"
	loginReason   = "daily login"
	maxRecentDays = 90
	minRecentDays = 7
)

// Marker notes that the account was active on DateKey, a calendar day in the
// caller's zone. There is at most one per account and day, and it is never
// updated once written.
type Marker struct {
	records.Base
	DateKey string `gorm:"size:10;not null" json:"date_key"`
	Login   bool   `gorm:"not null;default:false" json:"login"`
}

func (Marker) TableName() string {
	return "daily_activity"
}

// PostMigrate adds the one-marker-per-day constraint. user_id lives in the
// embedded records.Base, so the composite index cannot be declared by tag.
func (Marker) PostMigrate(db *gorm.DB) error {
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_activity_user_day ON daily_activity (user_id, date_key)").Error
}

// Granter credits karma. *karma.Ledger satisfies it.
type Granter interface {
	Adjust(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error)
}

type CheckIns struct {
	db      *gorm.DB
	ledger  Granter
	bonus   int64
	now     func() time.Time
	markers *records.Store[Marker, *Marker]
}

func NewCheckIns(db *gorm.DB, ledger Granter, bonus int64, now func() time.Time) *CheckIns {
	if now == nil {
		now = time.Now
	}
	return &CheckIns{
		db:      db,
		ledger:  ledger,
		bonus:   bonus,
		now:     now,
		markers: records.New[Marker](db, records.WithClock(func() time.Time { return now().UTC() })),
	}
}

func (c *CheckIns) Models() []interface{} {
	return []interface{}{&Marker{}}
}

// DateKey formats t as the calendar day it falls on in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// RecordLogin writes today's marker for userID. Only the call that actually
// creates the marker grants the daily bonus, so repeated sign-ins on the same
// day are free. The returned bool reports whether the marker was new.
func (c *CheckIns) RecordLogin(ctx context.Context, userID uuid.UUID, loc *time.Location) (bool, error) {
	if err := records.AccountExists(ctx, c.db, userID); err != nil {
		return false, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate marker id: %w", err)
	}
	now := c.now()
	m := Marker{
		Base: records.Base{
			ID:        id,
			UserID:    userID,
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		},
		DateKey: DateKey(now, loc),
		Login:   true,
	}

	result := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date_key"}},
			DoNothing: true,
		}).
		Create(&m)
	if result.Error != nil {
		return false, apperr.Transport(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if c.bonus > 0 && c.ledger != nil {
		if _, err := c.ledger.Adjust(ctx, userID, c.bonus, loginReason); err != nil {
			slog.Error("daily login bonus failed",
				"user_id", userID.String(),
				"date_key", m.DateKey,
				"error", err,
			)
			return true, fmt.Errorf("failed to grant daily bonus: %w", err)
		}
	}
	return true, nil
}

// Today returns the marker for the current day in loc, if any.
func (c *CheckIns) Today(ctx context.Context, userID uuid.UUID, loc *time.Location) (*Marker, bool, error) {
	var m Marker
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND date_key = ?", userID, DateKey(c.now(), loc)).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Transport(err)
	}
	return &m, true, nil
}

// Recent returns the active date keys of the last days days, oldest first.
// days is clamped to [7, 90].
func (c *CheckIns) Recent(ctx context.Context, userID uuid.UUID, days int, loc *time.Location) ([]string, error) {
	if days > maxRecentDays {
		days = maxRecentDays
	}
	if days < minRecentDays {
		days = minRecentDays
	}
	since := DateKey(localNoon(c.now(), loc).AddDate(0, 0, -days), loc)

	var keys []string
	err := c.db.WithContext(ctx).Model(&Marker{}).
		Where("user_id = ? AND date_key >= ?", userID, since).
		Order("date_key ASC").
		Pluck("date_key", &keys).Error
	if err != nil {
		return nil, apperr.Transport(err)
	}
	return keys, nil
}

// Streak counts consecutive active days ending today, or ending yesterday
// when today has no marker yet.
func (c *CheckIns) Streak(ctx context.Context, userID uuid.UUID, loc *time.Location) (int, error) {
	keys, err := c.Recent(ctx, userID, maxRecentDays, loc)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}

	day := localNoon(c.now(), loc)
	if !seen[DateKey(day, loc)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for seen[DateKey(day, loc)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// localNoon returns noon of t's calendar day in loc. Stepping days from noon
// lands on the neighbouring calendar day even across DST changes.
func localNoon(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 12, 0, 0, 0, loc)
}

// DeleteAllTx removes every marker of userID; only account deletion calls it.
func (c *CheckIns) DeleteAllTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return c.markers.DeleteAllTx(ctx, tx, userID)
}
