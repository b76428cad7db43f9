package apps

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/google/uuid"
)

// Adjuster changes a karma balance. *karma.Ledger satisfies it.
type Adjuster interface {
	Adjust(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error)
}

// Charge debits cost karma for a reading of the given kind and returns a
// function that credits it back. Free readings charge nothing and the refund
// is a no-op. The refund runs detached from the caller's cancellation and
// only logs a failure, since it already happens on an error path.
func Charge(ctx context.Context, ledger Adjuster, userID uuid.UUID, cost int64, kind string) (func(), error) {
	if cost <= 0 {
		return func() {}, nil
	}
	_, err := ledger.Adjust(ctx, userID, -cost, "reading: "+kind)
	if errors.Is(err, karma.ErrHistoryNotRecorded) {
		// The debit committed; only its history line is missing.
		slog.Warn("karma charge history missing", "user_id", userID.String(), "kind", kind, "error", err)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return func() {
		_, err := ledger.Adjust(context.WithoutCancel(ctx), userID, cost, "refund: "+kind)
		if err != nil && !errors.Is(err, karma.ErrHistoryNotRecorded) {
			slog.Error("karma refund failed",
				"user_id", userID.String(),
				"kind", kind,
				"amount", cost,
				"error", err,
			)
		}
	}, nil
}
