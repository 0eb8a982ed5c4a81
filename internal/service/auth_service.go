package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"mediashare/internal/auth"
	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
	"mediashare/internal/repository"
)

const bcryptCost = 10

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, email, password string, role model.Role) (token string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	roleCache  *auth.RoleCache
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, roleCache *auth.RoleCache) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		roleCache:  roleCache,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns the same bcrypt time as a real comparison, so an unknown
// email is indistinguishable from a wrong password by latency.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mediashare-dummy-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Register creates a user with a hashed password and returns a token for it.
func (s *authService) Register(ctx context.Context, email, password string, role model.Role) (string, *model.User, error) {
	email = model.NormalizeEmail(email)
	switch {
	case email == "":
		return "", nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	case password == "":
		return "", nil, fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	case !role.Valid():
		return "", nil, fmt.Errorf("%w: role must be creator or consumer", apperrors.ErrValidation)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", nil, apperrors.ErrDuplicateUser
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateUser) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}
	s.roleCache.Set(ctx, user.ID.String(), user.Role)

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	log.Infof("registered %s user %s", user.Role, user.ID)
	return token, user, nil
}

// Login authenticates a user. Unknown email and wrong password both yield
// ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperrors.ErrNotFound) {
		compareDummy(password)
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}
