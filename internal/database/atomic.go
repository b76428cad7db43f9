package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Atomic runs a read-modify-write on the row of T whose primary key is id.
//
// The row is read under SELECT ... FOR UPDATE inside a transaction, handed to
// fn, and the state fn returns is saved in the same transaction. If fn returns
// an error nothing is written and the error is returned as is. Concurrent
// callers on the same row are serialized by the database lock, so fn must not
// assume anything it did not read from cur. A missing row surfaces as
// gorm.ErrRecordNotFound.
//
// There is no retry: the lock makes a write conflict impossible, and any other
// failure is handed back to the caller.
func Atomic[T any, R any](ctx context.Context, db *gorm.DB, id any, fn func(cur T) (T, R, error)) (R, error) {
	var result R
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&cur).Error; err != nil {
			return err
		}

		next, r, err := fn(cur)
		if err != nil {
			return err
		}

		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}
