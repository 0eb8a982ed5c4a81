package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mediashare/internal/auth"
	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
	"mediashare/internal/repository"
	"mediashare/internal/testutil"
)

func newAuthService(repo repository.UserRepository) (AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService("test-secret")
	return NewAuthService(repo, jwtService, auth.NewRoleCache(nil)), jwtService
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		role          model.Role
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    " Test@Example.com",
			password: "password123",
			role:     model.RoleCreator,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, apperrors.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "user already exists",
			email:    "existing@example.com",
			password: "password123",
			role:     model.RoleConsumer,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrDuplicateUser,
		},
		{
			name:     "lost registration race",
			email:    "race@example.com",
			password: "password123",
			role:     model.RoleConsumer,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, apperrors.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(apperrors.ErrDuplicateUser)
			},
			expectedError: apperrors.ErrDuplicateUser,
		},
		{
			name:          "unknown role",
			email:         "x@example.com",
			password:      "password123",
			role:          model.Role("admin"),
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:     "metadata store down",
			email:    "down@example.com",
			password: "password123",
			role:     model.RoleCreator,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "down@example.com").Return(nil, apperrors.ErrMetadataUnavailable)
			},
			expectedError: apperrors.ErrMetadataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc, jwtService := newAuthService(mockRepo)
			token, user, err := svc.Register(context.Background(), tt.email, tt.password, tt.role)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "test@example.com", user.Email)
				assert.Equal(t, tt.role, user.Role)
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))

				userID, err := jwtService.Verify(token)
				require.NoError(t, err)
				assert.Equal(t, user.ID.String(), userID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_DuplicateMakesNoWrite(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: uuid.New(), Email: "a@x.com"}, nil)

	svc, _ := newAuthService(mockRepo)
	_, _, err := svc.Register(context.Background(), "a@x.com", "pw1", model.RoleCreator)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	require.NoError(t, err)
	userID := uuid.New()
	stored := &model.User{
		ID:           userID,
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         model.RoleConsumer,
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, apperrors.ErrNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "metadata store down",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, apperrors.ErrMetadataUnavailable)
			},
			expectedError: apperrors.ErrMetadataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc, jwtService := newAuthService(mockRepo)
			token, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, user.ID)
				gotID, err := jwtService.Verify(token)
				require.NoError(t, err)
				assert.Equal(t, userID.String(), gotID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginErrorsAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthService(repository.NewUserRepository(testutil.NewDB(t)))
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "a@x.com", "pw1", model.RoleCreator)
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(ctx, "a@x.com", "nope")
	_, _, unknownEmail := svc.Login(ctx, "ghost@x.com", "pw1")

	assert.True(t, errors.Is(wrongPassword, apperrors.ErrInvalidCredentials))
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc, jwtService := newAuthService(repository.NewUserRepository(testutil.NewDB(t)))
	ctx := context.Background()

	users := []struct {
		email, password string
		role            model.Role
	}{
		{"a@x.com", "pw1", model.RoleCreator},
		{"b@x.com", "pw2", model.RoleConsumer},
		{"C@X.com", "pw3", model.RoleConsumer},
	}

	for _, u := range users {
		_, created, err := svc.Register(ctx, u.email, u.password, u.role)
		require.NoError(t, err)

		token, loggedIn, err := svc.Login(ctx, u.email, u.password)
		require.NoError(t, err)
		assert.Equal(t, created.ID, loggedIn.ID)

		userID, err := jwtService.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, created.ID.String(), userID)
	}

	_, _, err := svc.Register(ctx, "c@x.com", "other", model.RoleCreator)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)
}
