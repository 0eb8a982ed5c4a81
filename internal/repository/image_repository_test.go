package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
	"mediashare/internal/testutil"
)

func newImage(creator uuid.UUID, key string, createdAt time.Time) *model.Image {
	return &model.Image{
		CreatorID:  creator,
		StorageKey: key,
		URL:        "http://storage/images/" + key,
		Title:      "title " + key,
		CreatedAt:  createdAt,
	}
}

func TestImageRepository_CreateAndFindByID(t *testing.T) {
	repo := NewImageRepository(testutil.NewDB(t))
	ctx := context.Background()

	lat, lng := 48.85, 2.35
	img := newImage(uuid.New(), "k1.png", time.Now())
	img.Location = &model.Location{Name: "Paris", Latitude: &lat, Longitude: &lng}
	img.Tags = []string{"sunset", "sea"}
	img.Metadata = map[string]any{"camera": "x100"}
	require.NoError(t, repo.Create(ctx, img))

	got, err := repo.FindByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)
	assert.Equal(t, []string{"sunset", "sea"}, got.Tags)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Paris", got.Location.Name)
	assert.InDelta(t, 48.85, *got.Location.Latitude, 0.0001)
	assert.Equal(t, "x100", got.Metadata["camera"])

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImageRepository_Ordering(t *testing.T) {
	repo := NewImageRepository(testutil.NewDB(t))
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newImage(alice, "old.png", base)))
	require.NoError(t, repo.Create(ctx, newImage(bob, "mid.png", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newImage(alice, "new.png", base.Add(2*time.Minute))))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new.png", all[0].StorageKey)
	assert.Equal(t, "mid.png", all[1].StorageKey)
	assert.Equal(t, "old.png", all[2].StorageKey)

	mine, err := repo.FindByCreator(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, img := range mine {
		assert.Equal(t, alice, img.CreatorID)
	}

	none, err := repo.FindByCreator(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestImageRepository_Delete(t *testing.T) {
	repo := NewImageRepository(testutil.NewDB(t))
	ctx := context.Background()

	img := newImage(uuid.New(), "k.png", time.Now())
	require.NoError(t, repo.Create(ctx, img))
	require.NoError(t, repo.Delete(ctx, img.ID))

	_, err := repo.FindByID(ctx, img.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, img.ID), apperrors.ErrNotFound)
}

func TestImageRepository_UpdateLikes(t *testing.T) {
	repo := NewImageRepository(testutil.NewDB(t))
	ctx := context.Background()

	img := newImage(uuid.New(), "k.png", time.Now())
	require.NoError(t, repo.Create(ctx, img))

	ok, err := repo.UpdateLikes(ctx, img.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale expectation loses
	ok, err = repo.UpdateLikes(ctx, img.ID, 0, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)

	ok, err = repo.UpdateLikes(ctx, uuid.New(), 0, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImageRepository_StorageKeys(t *testing.T) {
	repo := NewImageRepository(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newImage(uuid.New(), "a.png", time.Now())))
	require.NoError(t, repo.Create(ctx, newImage(uuid.New(), "b.png", time.Now())))

	keys, err := repo.StorageKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, keys)
}

func TestImageRepository_BackendFailure(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := NewImageRepository(gormDB)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.FindAll(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrMetadataUnavailable)
}
