package service

import (
	"context"
	"fmt"

	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/repository"
)

// AuthService authenticates users and resolves token subjects back to users.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewAuthService creates the authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the credentials and issues a JWT. Unknown emails and bad
// passwords produce the same error so the response does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, &domain.AuthenticationError{Reason: "invalid email or password"}
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		Token:     token,
		ExpiresIn: int(s.tokens.TokenDuration().Seconds()),
	}, nil
}

// UserForToken verifies a token and loads the user it was issued for.
func (s *AuthService) UserForToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, &domain.AuthenticationError{Reason: "invalid token"}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return nil, &domain.AuthenticationError{Reason: "unknown user"}
	}

	return user, nil
}
