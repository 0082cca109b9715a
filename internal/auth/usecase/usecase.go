package usecase

import (
	"context"
	"errors"

	authdomain "nexus-backend/internal/auth/domain"
	authdto "nexus-backend/internal/auth/dto"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidSession      = errors.New("invalid or expired token")
	ErrUserNotFound        = errors.New("user not found")
)

// AuthUsecase manages gateway accounts and the session tokens that identify them.
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*authdomain.User, error)

	// VerifySession validates a bearer access token. It fails with ErrInvalidSession
	// for bad signatures or expiry and ErrUserNotFound when the account is gone.
	VerifySession(ctx context.Context, token string) (*authdomain.Session, error)
}
