// Package ads simulates rewarded video ads. No ad network is contacted: a
// "view" is a fixed wait, after which the viewer is credited karma.
package ads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RewardReason is the ledger reason for ad rewards; the daily cap counts it.
const RewardReason = "rewarded ad"

var ErrDailyCapReached = errors.New("daily ad reward limit reached")

// Ledger is the part of *karma.Ledger the ad flow needs.
type Ledger interface {
	Adjust(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error)
	CountSince(ctx context.Context, userID uuid.UUID, reason string, since time.Time) (int64, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Rewarded struct {
	ledger   Ledger
	sleep    Sleeper
	now      func() time.Time
	duration time.Duration
	reward   int64
	dailyCap int64
}

type Options struct {
	WatchDuration time.Duration
	Reward        int64
	DailyCap      int64 // zero or less means no cap
	Sleeper       Sleeper
	Now           func() time.Time
}

func NewRewarded(ledger Ledger, opts Options) *Rewarded {
	r := &Rewarded{
		ledger:   ledger,
		sleep:    opts.Sleeper,
		now:      opts.Now,
		duration: opts.WatchDuration,
		reward:   opts.Reward,
		dailyCap: opts.DailyCap,
	}
	if r.sleep == nil {
		r.sleep = Sleep
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	return r
}

// Result describes a completed view.
type Result struct {
	Reward    int64 `json:"reward"`
	Balance   int64 `json:"balance"`
	Remaining int64 `json:"remaining_today"`
}

// Watch plays one simulated ad for userID and credits the reward. The cap is
// checked before and after the wait, since the viewer can start several ads
// at once; the check is best effort and may let one extra reward through
// under a race.
func (r *Rewarded) Watch(ctx context.Context, userID uuid.UUID) (Result, error) {
	if _, err := r.remaining(ctx, userID); err != nil {
		return Result{}, err
	}

	if err := r.sleep(ctx, r.duration); err != nil {
		return Result{}, fmt.Errorf("ad view interrupted: %w", err)
	}

	left, err := r.remaining(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	balance, err := r.ledger.Adjust(ctx, userID, r.reward, RewardReason)
	if err != nil {
		return Result{}, err
	}
	slog.Info("ad reward granted", "user_id", userID.String(), "reward", r.reward, "balance", balance)

	res := Result{Reward: r.reward, Balance: balance, Remaining: -1}
	if r.dailyCap > 0 {
		res.Remaining = left - 1
	}
	return res, nil
}

// Remaining reports how many rewarded views userID has left today, or -1
// when there is no cap.
func (r *Rewarded) Remaining(ctx context.Context, userID uuid.UUID) (int64, error) {
	left, err := r.remaining(ctx, userID)
	if errors.Is(err, ErrDailyCapReached) {
		return 0, nil
	}
	return left, err
}

func (r *Rewarded) remaining(ctx context.Context, userID uuid.UUID) (int64, error) {
	if r.dailyCap <= 0 {
		return -1, nil
	}
	now := r.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := r.ledger.CountSince(ctx, userID, RewardReason, dayStart)
	if err != nil {
		return 0, err
	}
	if n >= r.dailyCap {
		return 0, ErrDailyCapReached
	}
	return r.dailyCap - n, nil
}
