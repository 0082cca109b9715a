package usecase

import (
	"context"
	"time"

	authdomain "nexus-backend/internal/auth/domain"
	authdto "nexus-backend/internal/auth/dto"
	"nexus-backend/internal/auth/repository"
	"nexus-backend/pkg/config"
	"nexus-backend/pkg/signedtoken"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo      repository.UserRepository
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, cfg *config.Config, logger *zap.Logger) AuthUsecase {
	return &authUsecase{
		userRepo:      userRepo,
		secret:        []byte(cfg.JWTSecret),
		accessExpiry:  cfg.JWTAccessExpiry,
		refreshExpiry: cfg.JWTRefreshExpiry,
		logger:        logger,
		now:           time.Now,
	}
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	u.logger.Info("user registered", zap.String("user_id", user.ID))

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error) {
	claims, err := signedtoken.Verify(refreshToken, u.secret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Check if token exists in repository
	storedToken, err := u.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(u.now()) {
		return nil, ErrInvalidRefreshToken
	}

	userID := signedtoken.String(claims, "user_id")
	if userID == "" || userID != storedToken.UserID {
		return nil, ErrInvalidRefreshToken
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (u *authUsecase) GetUser(ctx context.Context, userID string) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (u *authUsecase) VerifySession(ctx context.Context, token string) (*authdomain.Session, error) {
	claims, err := signedtoken.Verify(token, u.secret)
	if err != nil {
		return nil, ErrInvalidSession
	}

	// Refresh tokens carry token_id and must not be accepted as access tokens.
	userID := signedtoken.String(claims, "user_id")
	if userID == "" || signedtoken.String(claims, "token_id") != "" {
		return nil, ErrInvalidSession
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	session := &authdomain.Session{UserID: user.ID}
	session.IssuedAt, _ = signedtoken.Time(claims, "iat")
	session.ExpiresAt, _ = signedtoken.Time(claims, "exp")
	return session, nil
}

func (u *authUsecase) generateTokens(ctx context.Context, user *authdomain.User) (*authdto.TokenResponse, error) {
	now := u.now()

	accessToken, err := signedtoken.Sign(signedtoken.Claims{
		"user_id": user.ID,
		"email":   user.Email,
	}, u.secret, now, u.accessExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := signedtoken.Sign(signedtoken.Claims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
	}, u.secret, now, u.refreshExpiry)
	if err != nil {
		return nil, err
	}

	// Store refresh token
	if err := u.userRepo.SaveRefreshToken(ctx, &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.refreshExpiry),
	}); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
