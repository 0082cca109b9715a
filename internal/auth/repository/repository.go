package repository

import (
	"context"

	authdomain "nexus-backend/internal/auth/domain"
)

// UserRepository defines the interface for account and refresh-token storage
type UserRepository interface {
	Create(ctx context.Context, user *authdomain.User) error
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
	FindByID(ctx context.Context, id string) (*authdomain.User, error)

	SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}
