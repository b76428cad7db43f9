package activity_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/activity"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type countingGranter struct {
	calls atomic.Int64
	err   error
}

func (g *countingGranter) Adjust(_ context.Context, _ uuid.UUID, amount int64, _ string) (int64, error) {
	g.calls.Add(1)
	return amount, g.err
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	u := models.User{DisplayName: "Seer"}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func openDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t, &models.User{}, &karma.Transaction{}, &activity.Marker{})
}

func TestDateKey_UsesCallerZone(t *testing.T) {
	ts := time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-05-10", activity.DateKey(ts, time.UTC))
	assert.Equal(t, "2026-05-11", activity.DateKey(ts, time.FixedZone("UTC+3", 3*3600)))
	assert.Equal(t, "2026-05-10", activity.DateKey(ts, nil))
}

func TestRecordLogin_GrantsBonusOncePerDay(t *testing.T) {
	db := openDB(t)
	clk := &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	ledger := karma.NewLedger(db, clk.now)
	checkIns := activity.NewCheckIns(db, ledger, 5, clk.now)
	userID := seedUser(t, db)
	ctx := context.Background()

	created, err := checkIns.RecordLogin(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.True(t, created)

	clk.t = clk.t.Add(6 * time.Hour)
	created, err = checkIns.RecordLogin(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.False(t, created)

	bal, err := ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal)

	clk.t = clk.t.Add(24 * time.Hour)
	created, err = checkIns.RecordLogin(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.True(t, created)

	bal, err = ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)

	history, err := ledger.History(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "daily login", history[0].Reason)
}

func TestRecordLogin_ConcurrentSameDay(t *testing.T) {
	db := openDB(t)
	clk := &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	granter := &countingGranter{}
	checkIns := activity.NewCheckIns(db, granter, 5, clk.now)
	userID := seedUser(t, db)

	var created atomic.Int64
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			ok, err := checkIns.RecordLogin(context.Background(), userID, time.UTC)
			if ok {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(1), granter.calls.Load())
}

func TestRecordLogin_ZeroBonusSkipsLedger(t *testing.T) {
	db := openDB(t)
	granter := &countingGranter{}
	checkIns := activity.NewCheckIns(db, granter, 0, nil)
	userID := seedUser(t, db)

	created, err := checkIns.RecordLogin(context.Background(), userID, time.UTC)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, granter.calls.Load())
}

func TestRecordLogin_BonusFailureKeepsMarker(t *testing.T) {
	db := openDB(t)
	granter := &countingGranter{err: errors.New("ledger down")}
	checkIns := activity.NewCheckIns(db, granter, 5, nil)
	userID := seedUser(t, db)

	created, err := checkIns.RecordLogin(context.Background(), userID, time.UTC)
	assert.Error(t, err)
	assert.True(t, created)

	_, found, err := checkIns.Today(context.Background(), userID, time.UTC)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRecordLogin_UnknownAccount(t *testing.T) {
	db := openDB(t)
	checkIns := activity.NewCheckIns(db, &countingGranter{}, 5, nil)

	_, err := checkIns.RecordLogin(context.Background(), uuid.New(), time.UTC)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTodayRecentAndStreak(t *testing.T) {
	db := openDB(t)
	clk := &clock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	checkIns := activity.NewCheckIns(db, nil, 0, clk.now)
	userID := seedUser(t, db)
	ctx := context.Background()

	// Active on May 1, 3, 4, 5.
	for _, day := range []int{1, 3, 4, 5} {
		clk.t = time.Date(2026, 5, day, 8, 0, 0, 0, time.UTC)
		_, err := checkIns.RecordLogin(ctx, userID, time.UTC)
		require.NoError(t, err)
	}

	m, found, err := checkIns.Today(ctx, userID, time.UTC)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2026-05-05", m.DateKey)
	assert.True(t, m.Login)

	keys, err := checkIns.Recent(ctx, userID, 30, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-05-01", "2026-05-03", "2026-05-04", "2026-05-05"}, keys)

	streak, err := checkIns.Streak(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)

	// Not yet active on May 6: the run ending yesterday still counts.
	clk.t = time.Date(2026, 5, 6, 8, 0, 0, 0, time.UTC)
	_, found, err = checkIns.Today(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.False(t, found)
	streak, err = checkIns.Streak(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)

	clk.t = time.Date(2026, 5, 8, 8, 0, 0, 0, time.UTC)
	streak, err = checkIns.Streak(ctx, userID, time.UTC)
	require.NoError(t, err)
	assert.Zero(t, streak)
}

func TestStreak_AcrossShortDSTDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	db := openDB(t)
	// 2026-03-08 is 23 hours long in New York.
	clk := &clock{t: time.Date(2026, 3, 8, 17, 0, 0, 0, time.UTC)}
	checkIns := activity.NewCheckIns(db, nil, 0, clk.now)
	userID := seedUser(t, db)
	ctx := context.Background()

	_, err = checkIns.RecordLogin(ctx, userID, loc)
	require.NoError(t, err)

	// 00:30 local on 2026-03-09.
	clk.t = time.Date(2026, 3, 9, 4, 30, 0, 0, time.UTC)
	_, err = checkIns.RecordLogin(ctx, userID, loc)
	require.NoError(t, err)

	streak, err := checkIns.Streak(ctx, userID, loc)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	keys, err := checkIns.Recent(ctx, userID, 7, loc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08", "2026-03-09"}, keys)
}
