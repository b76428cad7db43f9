// Package records implements create/read/update/delete over collections of
// records owned by a single account.
//
// A collection is any GORM model that embeds Base; its table is the
// collection name. Every operation is scoped by the owning user id, so one
// account can never read or touch another account's records.
package records

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var (
	// ErrInvalidField is returned for an unknown ordering or update field, or
	// an attempt to update a field the store owns.
	ErrInvalidField = fmt.Errorf("%w: invalid field", apperr.ErrValidation)
)

// Base carries the fields the store manages for every record.
//
// IDs are UUIDv7, so ordering by id is insertion order; List uses that as the
// tie-break after the requested field.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta exposes the managed fields to the store.
func (b *Base) Meta() *Base { return b }

// Record is satisfied by a pointer to any model embedding Base.
type Record[T any] interface {
	*T
	Meta() *Base
}

var protectedFields = map[string]bool{"id": true, "user_id": true, "created_at": true}

const defaultPageSize = 100

// Store is a collection of T records.
type Store[T any, P Record[T]] struct {
	db       *gorm.DB
	now      func() time.Time
	pageSize int

	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

type Option func(*options)

type options struct {
	now      func() time.Time
	pageSize int
}

// WithClock sets the time source for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPageSize sets how many records List fetches per round-trip.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

func New[T any, P Record[T]](db *gorm.DB, opts ...Option) *Store[T, P] {
	o := options{
		now:      func() time.Time { return time.Now().UTC() },
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T, P]{db: db, now: o.now, pageSize: o.pageSize}
}

// Create inserts rec under userID and returns the generated id. The id, owner
// and timestamps on rec are overwritten. The owner must exist.
func (s *Store[T, P]) Create(ctx context.Context, userID uuid.UUID, rec P) (uuid.UUID, error) {
	return s.CreateTx(ctx, s.db, userID, rec)
}

// CreateTx is Create on an existing transaction handle.
func (s *Store[T, P]) CreateTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rec P) (uuid.UUID, error) {
	if err := AccountExists(ctx, tx, userID); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate record id: %w", err)
	}

	now := s.now()
	meta := rec.Meta()
	meta.ID = id
	meta.UserID = userID
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		return uuid.Nil, apperr.Transport(err)
	}
	return id, nil
}

// Get returns the record, or found=false when it does not exist for userID.
// A missing record is not an error.
func (s *Store[T, P]) Get(ctx context.Context, userID, id uuid.UUID) (P, bool, error) {
	var zero P
	rec := P(new(T))
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Take(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, apperr.Transport(err)
	}
	return rec, true, nil
}

// Page returns one slice of the ordered collection.
func (s *Store[T, P]) Page(ctx context.Context, userID uuid.UUID, orderBy string, desc bool, limit, offset int) ([]P, error) {
	column, err := s.column(orderBy)
	if err != nil {
		return nil, err
	}

	var out []P
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Transport(err)
	}
	return out, nil
}

// List yields every record of userID ordered by orderBy, ties in insertion
// order. Records are fetched one page at a time as the caller ranges; ranging
// again starts a fresh query. An error is yielded once and ends the sequence.
func (s *Store[T, P]) List(ctx context.Context, userID uuid.UUID, orderBy string, desc bool) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		for offset := 0; ; offset += s.pageSize {
			page, err := s.Page(ctx, userID, orderBy, desc, s.pageSize, offset)
			if err != nil {
				var zero P
				yield(zero, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

// Count returns the number of records userID owns.
func (s *Store[T, P]) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(P(new(T))).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, apperr.Transport(err)
	}
	return n, nil
}

// Update applies a partial update. Keys are column or field names.
func (s *Store[T, P]) Update(ctx context.Context, userID, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: nothing to update", ErrInvalidField)
	}

	sch, err := s.parse()
	if err != nil {
		return err
	}
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		f := sch.LookUpField(k)
		if f == nil || f.DBName == "" || protectedFields[f.DBName] {
			return fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
		updates[f.DBName] = v
	}
	updates["updated_at"] = s.now()

	result := s.db.WithContext(ctx).Model(P(new(T))).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates)
	if result.Error != nil {
		return apperr.Transport(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: record %s", apperr.ErrNotFound, id)
	}
	return nil
}

// Delete removes the record.
func (s *Store[T, P]) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(P(new(T)))
	if result.Error != nil {
		return apperr.Transport(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: record %s", apperr.ErrNotFound, id)
	}
	return nil
}

// DeleteAllTx removes every record of userID; used by account deletion.
func (s *Store[T, P]) DeleteAllTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(P(new(T))).Error; err != nil {
		return apperr.Transport(err)
	}
	return nil
}

func (s *Store[T, P]) column(name string) (string, error) {
	sch, err := s.parse()
	if err != nil {
		return "", err
	}
	f := sch.LookUpField(name)
	if f == nil || f.DBName == "" {
		return "", fmt.Errorf("%w: cannot order by %q", ErrInvalidField, name)
	}
	return f.DBName, nil
}

func (s *Store[T, P]) parse() (*schema.Schema, error) {
	s.schemaOnce.Do(func() {
		stmt := &gorm.Statement{DB: s.db}
		s.schemaErr = stmt.Parse(P(new(T)))
		s.schema = stmt.Schema
	})
	return s.schema, s.schemaErr
}

// AccountExists returns apperr.ErrNotFound when userID has no account.
func AccountExists(ctx context.Context, db *gorm.DB, userID uuid.UUID) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return apperr.Transport(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: account %s", apperr.ErrNotFound, userID)
	}
	return nil
}
