package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "mediashare/internal/errors"
)

// TokenLifetime is the fixed validity window of an issued token.
const TokenLifetime = 24 * time.Hour

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 bearer tokens. Tokens are not revocable.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithClock(secret, time.Now)
}

// NewJWTServiceWithClock issues tokens stamped with now(). Verification still
// checks expiry against the real time.
func NewJWTServiceWithClock(secret string, now func() time.Time) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    now,
	}
}

// GenerateToken issues a token for userID that expires after TokenLifetime.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	issued := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the user id embedded in tokenString. A forged or malformed
// token yields ErrInvalidToken even when it is also expired.
func (s *JWTService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenMalformed):
		return "", apperrors.ErrInvalidToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperrors.ErrExpiredToken
	default:
		return "", apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.UserID, nil
}
