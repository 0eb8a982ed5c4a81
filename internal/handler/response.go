package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "mediashare/internal/errors"
	"mediashare/internal/model"
)

// httpError converts a domain error into the JSON error envelope.
func httpError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Email: u.Email, Role: u.Role}
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}
