package services

import (
	"context"
	"errors"
	"fmt"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"` // seconds
	User        *models.User   `json:"user"`
	Restaurant  *models.Tenant `json:"restaurant,omitempty"`
}

// SessionResponse describes the current caller.
type SessionResponse struct {
	User       *models.User   `json:"user"`
	Restaurant *models.Tenant `json:"restaurant,omitempty"`
}

// AuthService defines the interface for authentication operations.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error)
	Logout(ctx context.Context, principal models.Principal) error
	Session(ctx context.Context, principal models.Principal) (*SessionResponse, error)
}

type authService struct {
	users   repositories.AuthRepository
	tenants TenantService
	tokens  *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository, ts TenantService, tokens *utils.TokenManager) AuthService {
	return &authService{users: ar, tenants: ts, tokens: tokens}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Login verifies credentials and issues an access token. An owner login marks the restaurant online.
func (s *authService) Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error) {
	user, err := s.users.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		// err is bcrypt.ErrMismatchedHashAndPassword for wrong password
		return nil, ErrInvalidCredentials
	}

	tenantID := utils.DerefString(user.TenantID)
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	resp := &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user,
	}
	if tenantID != "" {
		if err := s.tenants.SetOnlineStatus(ctx, tenantID, true); err != nil {
			utils.LogError(err, "Failed to mark restaurant online", map[string]interface{}{"restaurant_id": tenantID})
		}
		if tenant, err := s.tenants.GetTenant(ctx, models.ScopeTenant(tenantID), tenantID); err == nil {
			resp.Restaurant = tenant
		}
	}

	utils.LogInfo("User logged in", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return resp, nil
}

// Logout marks the caller's restaurant offline. Tokens are stateless and simply expire.
func (s *authService) Logout(ctx context.Context, principal models.Principal) error {
	if principal.TenantID == "" {
		return nil
	}
	return s.tenants.SetOnlineStatus(ctx, principal.TenantID, false)
}

func (s *authService) Session(ctx context.Context, principal models.Principal) (*SessionResponse, error) {
	user, err := s.users.FindUserByID(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	resp := &SessionResponse{User: user}
	if principal.TenantID != "" {
		tenant, err := s.tenants.GetTenant(ctx, models.ScopeTenant(principal.TenantID), principal.TenantID)
		if err != nil {
			return nil, err
		}
		resp.Restaurant = tenant
	}
	return resp, nil
}
