package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken is returned when a token is malformed or its signature does not match.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a well-formed token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrForbidden is returned for a valid credential with the wrong role or a non-owner.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a referenced user or image does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUser is returned when registering an email that is already taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedMedia is returned when an upload is not an image.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrPayloadTooLarge is returned when an upload exceeds the size cap.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrConflict is returned when an optimistic update keeps losing the race.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrStorageUnavailable is returned when the object store fails.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	// ErrMetadataUnavailable is returned when the metadata store fails.
	ErrMetadataUnavailable = errors.New("metadata store unavailable")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

type mapping struct {
	target error
	status int
	code   string
	detail bool
}

// Ordered: token errors before ErrUnauthenticated, since the gate wraps them.
var mappings = []mapping{
	{ErrExpiredToken, http.StatusUnauthorized, "TOKEN_EXPIRED", false},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN", false},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", false},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", false},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", false},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", false},
	{ErrDuplicateUser, http.StatusBadRequest, "DUPLICATE_USER", false},
	{ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED", true},
	{ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", false},
	{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", false},
	{ErrConflict, http.StatusConflict, "CONFLICT", false},
	{ErrStorageUnavailable, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", false},
	{ErrMetadataUnavailable, http.StatusServiceUnavailable, "METADATA_UNAVAILABLE", false},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are matched
// with errors.Is; only validation errors expose their wrapped detail.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			msg := m.target.Error()
			if m.detail {
				msg = err.Error()
			}
			return NewHTTPError(m.status, msg, m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsServerError reports whether err maps to a 5xx status.
func IsServerError(err error) bool {
	return MapErrorToHTTP(err).StatusCode >= http.StatusInternalServerError
}
