// Package karma keeps each account's karma balance and its history.
package karma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrZeroAmount = fmt.Errorf("%w: karma amount must not be zero", apperr.ErrValidation)

	// ErrHistoryNotRecorded means the balance change committed but its
	// history entry could not be appended.
	ErrHistoryNotRecorded = errors.New("karma history entry not recorded")
)

const maxReasonLen = 200

// Transaction is one immutable history entry. Entries are only ever
// appended, never updated or deleted (except with the whole account).
type Transaction struct {
	records.Base
	Amount int64  `gorm:"not null" json:"amount"`
	Reason string `gorm:"size:200" json:"reason"`
}

func (Transaction) TableName() string {
	return "karma_transactions"
}

type Ledger struct {
	db      *gorm.DB
	now     func() time.Time
	history *records.Store[Transaction, *Transaction]
}

func NewLedger(db *gorm.DB, now func() time.Time) *Ledger {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ledger{
		db:      db,
		now:     now,
		history: records.New[Transaction](db, records.WithClock(now)),
	}
}

func (l *Ledger) Models() []interface{} {
	return []interface{}{&Transaction{}}
}

// Adjust adds amount (which may be negative) to the balance of userID and
// returns the new balance.
//
// The balance change is one locked read-modify-write on the account row: a
// missing account yields apperr.ErrNotFound and a result below zero yields
// apperr.ErrInsufficientBalance, both without writing anything. The history
// entry is appended only after that commit and outside it. If the append
// fails, the committed balance is still returned together with an error
// wrapping ErrHistoryNotRecorded. Nothing is retried.
func (l *Ledger) Adjust(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	reason = normalizeReason(reason)

	balance, err := database.Atomic(ctx, l.db, userID, func(acct models.User) (models.User, int64, error) {
		next := acct.KarmaBalance + amount
		if next < 0 {
			return acct, 0, fmt.Errorf("%w: balance %d, change %d", apperr.ErrInsufficientBalance, acct.KarmaBalance, amount)
		}
		acct.KarmaBalance = next
		acct.UpdatedAt = l.now()
		return acct, next, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: account %s", apperr.ErrNotFound, userID)
		}
		return 0, apperr.Transport(err)
	}

	// The change has happened; record it even if the caller has gone away.
	entry := &Transaction{Amount: amount, Reason: reason}
	if _, err := l.history.Create(context.WithoutCancel(ctx), userID, entry); err != nil {
		slog.Error("karma history append failed",
			"user_id", userID.String(),
			"action", "karma_adjust",
			"amount", amount,
			"balance", balance,
			"error", err,
		)
		return balance, fmt.Errorf("%w: %w", ErrHistoryNotRecorded, err)
	}

	slog.Info("karma adjusted", "user_id", userID.String(), "amount", amount, "balance", balance, "reason", reason)
	return balance, nil
}

// Balance returns the current balance of userID.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var acct models.User
	err := l.db.WithContext(ctx).Select("id", "karma_balance").Where("id = ?", userID).Take(&acct).Error
	if err != nil {
		return 0, apperr.Transport(err)
	}
	return acct.KarmaBalance, nil
}

// History returns entries newest first.
func (l *Ledger) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	return l.history.Page(ctx, userID, "created_at", true, limit, offset)
}

// CountSince counts entries with the given reason created at or after since.
func (l *Ledger) CountSince(ctx context.Context, userID uuid.UUID, reason string, since time.Time) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&Transaction{}).
		Where("user_id = ? AND reason = ? AND created_at >= ?", userID, normalizeReason(reason), since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Transport(err)
	}
	return n, nil
}

// DeleteAllTx removes the history of userID; only account deletion calls it.
func (l *Ledger) DeleteAllTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return l.history.DeleteAllTx(ctx, tx, userID)
}

func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxReasonLen {
		return reason
	}
	// Cut on a rune boundary so the stored text stays valid UTF-8.
	cut := maxReasonLen
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
