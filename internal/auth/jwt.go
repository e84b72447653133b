package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orgpay/payment-server/internal/models"
)

// TokenManager issues and verifies the HS256 tokens used by the HTTP surface.
type TokenManager struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewTokenManager creates a token manager with a 24 hour token validity.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		tokenDuration: 24 * time.Hour,
	}
}

// TokenDuration returns the configured token validity.
func (m *TokenManager) TokenDuration() time.Duration {
	return m.tokenDuration
}

// Generate signs a token for the user carrying their id and role.
func (m *TokenManager) Generate(user *models.User) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10), // subject
		"role": string(user.Role),
		"jti":  uuid.New().String(),
		"exp":  now.Add(m.tokenDuration).Unix(),
		"iat":  now.Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token string and returns the user id it was issued for.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("invalid user id in token")
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id in token: %w", err)
	}

	return userID, nil
}
