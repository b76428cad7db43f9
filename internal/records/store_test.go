package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type note struct {
	records.Base
	Title string `gorm:"size:100"`
	Rank  int
}

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setup(t *testing.T, opts ...records.Option) (*records.Store[note, *note], *gorm.DB, uuid.UUID) {
	t.Helper()
	db := dbtest.Open(t, &models.User{}, &note{})
	user := models.User{DisplayName: "Ada"}
	require.NoError(t, db.Create(&user).Error)

	clock := &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]records.Option{records.WithClock(clock.Now)}, opts...)
	return records.New[note](db, opts...), db, user.ID
}

func collect(t *testing.T, store *records.Store[note, *note], userID uuid.UUID, orderBy string, desc bool) []*note {
	t.Helper()
	var out []*note
	for rec, err := range store.List(context.Background(), userID, orderBy, desc) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func titles(ns []*note) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Title
	}
	return out
}

func TestCreateThenGet(t *testing.T) {
	store, _, userID := setup(t)
	ctx := context.Background()

	in := &note{Title: "The Tower", Rank: 16}
	id, err := store.Create(ctx, userID, in)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(7), id.Version())

	got, found, err := store.Get(ctx, userID, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "The Tower", got.Title)
	assert.Equal(t, 16, got.Rank)
	assert.True(t, got.CreatedAt.Equal(in.CreatedAt))
}

func TestCreate_UnknownAccount(t *testing.T) {
	store, db, _ := setup(t)

	_, err := store.Create(context.Background(), uuid.New(), &note{Title: "orphan"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&note{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGet_MissingIsAbsentNotError(t *testing.T) {
	store, db, userID := setup(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)

	other := models.User{DisplayName: "Eve"}
	require.NoError(t, db.Create(&other).Error)
	id, err := store.Create(ctx, userID, &note{Title: "mine"})
	require.NoError(t, err)

	_, found, err = store.Get(ctx, other.ID, id)
	require.NoError(t, err)
	assert.False(t, found, "records are scoped to their owner")
}

func TestList_OrderByCreatedAtDescending(t *testing.T) {
	store, _, userID := setup(t)
	ctx := context.Background()

	for _, title := range []string{"t1", "t2", "t3"} {
		_, err := store.Create(ctx, userID, &note{Title: title})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"t3", "t2", "t1"}, titles(collect(t, store, userID, "created_at", true)))
	assert.Equal(t, []string{"t1", "t2", "t3"}, titles(collect(t, store, userID, "CreatedAt", false)))
}

func TestList_TiesKeepInsertionOrder(t *testing.T) {
	store, _, userID := setup(t)
	ctx := context.Background()

	for _, n := range []note{{Title: "a", Rank: 1}, {Title: "b", Rank: 2}, {Title: "c", Rank: 1}, {Title: "d", Rank: 2}} {
		n := n
		_, err := store.Create(ctx, userID, &n)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "c", "b", "d"}, titles(collect(t, store, userID, "rank", false)))
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles(collect(t, store, userID, "rank", true)))
}

func TestList_PagesLazilyAndRestarts(t *testing.T) {
	store, _, userID := setup(t, records.WithPageSize(2))
	ctx := context.Background()

	for _, title := range []string{"1", "2", "3", "4", "5"} {
		_, err := store.Create(ctx, userID, &note{Title: title})
		require.NoError(t, err)
	}

	seq := store.List(ctx, userID, "created_at", false)

	var first []string
	for rec, err := range seq {
		require.NoError(t, err)
		first = append(first, rec.Title)
		if len(first) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, first)

	var all []string
	for rec, err := range seq {
		require.NoError(t, err)
		all = append(all, rec.Title)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, all)
}

func TestList_InvalidOrderField(t *testing.T) {
	store, _, userID := setup(t)

	var errs []error
	for _, err := range store.List(context.Background(), userID, "title; DROP TABLE notes", false) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], records.ErrInvalidField)
	assert.ErrorIs(t, errs[0], apperr.ErrValidation)
}

func TestUpdate(t *testing.T) {
	store, db, userID := setup(t)
	ctx := context.Background()

	id, err := store.Create(ctx, userID, &note{Title: "draft", Rank: 1})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, userID, id, map[string]any{"title": "final", "Rank": 9}))
	got, found, err := store.Get(ctx, userID, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, 9, got.Rank)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	assert.ErrorIs(t, store.Update(ctx, userID, id, map[string]any{"user_id": uuid.New()}), records.ErrInvalidField)
	assert.ErrorIs(t, store.Update(ctx, userID, id, map[string]any{"nope": 1}), records.ErrInvalidField)
	assert.ErrorIs(t, store.Update(ctx, userID, id, nil), records.ErrInvalidField)
	assert.ErrorIs(t, store.Update(ctx, userID, uuid.New(), map[string]any{"title": "x"}), apperr.ErrNotFound)

	other := models.User{DisplayName: "Eve"}
	require.NoError(t, db.Create(&other).Error)
	assert.ErrorIs(t, store.Update(ctx, other.ID, id, map[string]any{"title": "stolen"}), apperr.ErrNotFound)
}

func TestDeleteThenGetIsAbsent(t *testing.T) {
	store, _, userID := setup(t)
	ctx := context.Background()

	id, err := store.Create(ctx, userID, &note{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, userID, id))

	_, found, err := store.Get(ctx, userID, id)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, store.Delete(ctx, userID, id), apperr.ErrNotFound)
}

func TestCountAndDeleteAll(t *testing.T) {
	store, db, userID := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, userID, &note{Title: "n"})
		require.NoError(t, err)
	}
	n, err := store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, store.DeleteAllTx(ctx, db, userID))
	n, err = store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
