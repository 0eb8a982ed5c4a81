package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
	"mediashare/internal/testutil"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user := &model.User{Email: "  A@X.com ", PasswordHash: "hash", Role: model.RoleCreator}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "a@x.com", user.Email)

	byEmail, err := repo.FindByEmail(ctx, "a@X.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, model.RoleCreator, byEmail.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "h", Role: model.RoleCreator}))
	err := repo.Create(ctx, &model.User{Email: "A@x.com", PasswordHash: "h", Role: model.RoleConsumer})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)
}
