package middleware

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"mediashare/internal/auth"
	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
	"mediashare/internal/repository"
)

// Context keys set by AccessControl.
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AccessControl authenticates bearer tokens and enforces roles.
type AccessControl struct {
	jwtService *auth.JWTService
	roles      *auth.RoleCache
	users      repository.UserRepository
}

// NewAccessControl creates the access control middleware set.
func NewAccessControl(jwtService *auth.JWTService, roles *auth.RoleCache, users repository.UserRepository) *AccessControl {
	return &AccessControl{jwtService: jwtService, roles: roles, users: users}
}

// Authenticate requires "Authorization: Bearer <token>" and stores the
// token's user id under ContextUserID.
func (a *AccessControl) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  ContextUserID,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return a.jwtService.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			switch {
			case errors.Is(err, apperrors.ErrExpiredToken), errors.Is(err, apperrors.ErrInvalidToken):
				return reject(fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err))
			default:
				return reject(apperrors.ErrUnauthenticated)
			}
		},
	})
}

// Authorize admits only users whose role is in allowed. It must run after
// Authenticate. Roles are read from the cache, falling back to the user store.
func (a *AccessControl) Authorize(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := uuid.Parse(UserID(c))
			if err != nil {
				return reject(apperrors.ErrUnauthenticated)
			}

			ctx := c.Request().Context()
			role, ok := a.roles.Get(ctx, userID.String())
			if !ok {
				user, err := a.users.FindByID(ctx, userID)
				if errors.Is(err, apperrors.ErrNotFound) {
					return reject(apperrors.ErrUnauthenticated)
				}
				if err != nil {
					return reject(err)
				}
				role = user.Role
				a.roles.Set(ctx, userID.String(), role)
			}

			for _, r := range allowed {
				if r == role {
					c.Set(ContextUserRole, role)
					return next(c)
				}
			}
			return reject(apperrors.ErrForbidden)
		}
	}
}

// UserID returns the authenticated user id, or "" outside Authenticate.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

func reject(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}
