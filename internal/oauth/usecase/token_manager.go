package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	credentialdomain "nexus-backend/internal/credential/domain"
	"nexus-backend/internal/credential/repository"
	"nexus-backend/pkg/google"
	"nexus-backend/pkg/signedtoken"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// ExpiryMargin is how close to expiry a stored token is still handed out.
	ExpiryMargin = 60 * time.Second
	// StateTTL bounds the time between building a consent URL and its callback.
	StateTTL = 10 * time.Minute

	callbackPath = "/oauth/google/callback"
)

var (
	ErrInvalidOAuthState = errors.New("invalid oauth state")
	ErrExchangeFailed    = errors.New("authorization code exchange failed")
	ErrRefreshFailed     = errors.New("access token refresh failed")
)

// Provider is the identity provider's token endpoint.
type Provider interface {
	AuthCodeURL(redirectURI, state string) string
	ExchangeAuthCode(ctx context.Context, code, redirectURI string) (*google.TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (*google.TokenGrant, error)
}

// TokenManager owns the stored Google credential of each user: acquisition
// through the authorization-code flow and refresh on read.
type TokenManager struct {
	credentials  repository.CredentialRepository
	provider     Provider
	providerName string
	stateSecret  []byte
	redirectURI  string
	logger       *zap.Logger
	now          func() time.Time

	// Concurrent reads of the same expired credential share one refresh call.
	refreshGroup singleflight.Group
}

// NewTokenManager creates a TokenManager. An empty redirectURI derives the
// callback from the request base URL.
func NewTokenManager(credentials repository.CredentialRepository, provider Provider, stateSecret, redirectURI string, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		credentials:  credentials,
		provider:     provider,
		providerName: google.ProviderName,
		stateSecret:  []byte(stateSecret),
		redirectURI:  redirectURI,
		logger:       logger,
		now:          time.Now,
	}
}

// RedirectURI returns the callback URL Google redirects back to.
func (m *TokenManager) RedirectURI(baseURL string) string {
	if m.redirectURI != "" {
		return m.redirectURI
	}
	return strings.TrimSuffix(baseURL, "/") + callbackPath
}

// BuildAuthURL returns the consent URL for userID. The state binds the callback
// to the user for StateTTL.
func (m *TokenManager) BuildAuthURL(baseURL, userID string) (string, error) {
	now := m.now()
	state, err := signedtoken.Sign(signedtoken.Claims{
		"uid": userID,
		"t":   now.UnixMilli(),
	}, m.stateSecret, now, StateTTL)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return m.provider.AuthCodeURL(m.RedirectURI(baseURL), state), nil
}

// ExchangeAuthorizationCode verifies state, trades code for tokens and stores them.
// Nothing is written when state does not verify.
func (m *TokenManager) ExchangeAuthorizationCode(ctx context.Context, baseURL, code, state string) (userID, accessToken string, err error) {
	claims, err := signedtoken.Verify(state, m.stateSecret, signedtoken.At(m.now))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidOAuthState, err)
	}
	userID = signedtoken.String(claims, "uid")
	if userID == "" {
		return "", "", fmt.Errorf("%w: missing uid", ErrInvalidOAuthState)
	}

	grant, err := m.provider.ExchangeAuthCode(ctx, code, m.RedirectURI(baseURL))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	cred := &credentialdomain.OAuthCredential{
		UserID:       userID,
		Provider:     m.providerName,
		AccessToken:  grant.AccessToken,
		RefreshToken: optional(grant.RefreshToken),
		ExpiresAt:    m.now().Unix() + grant.ExpiresIn,
		Scopes:       optional(grant.Scope),
	}
	if err := m.credentials.UpsertCredential(ctx, cred); err != nil {
		return "", "", fmt.Errorf("store %s credential: %w", m.providerName, err)
	}

	m.logger.Info("oauth credential stored",
		zap.String("user_id", userID),
		zap.String("provider", m.providerName),
		zap.Bool("has_refresh_token", cred.HasRefreshToken()),
	)
	return userID, grant.AccessToken, nil
}

// GetUsableAccessToken returns a token valid for at least ExpiryMargin, refreshing
// the stored one when needed. It returns "" when the user has no credential or
// the credential cannot recover from expiry.
func (m *TokenManager) GetUsableAccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.credentials.GetCredential(ctx, userID, m.providerName)
	if err != nil {
		return "", fmt.Errorf("load %s credential: %w", m.providerName, err)
	}
	if cred == nil {
		return "", nil
	}

	if cred.AccessToken != "" && cred.ExpiresAt-m.now().Unix() > int64(ExpiryMargin/time.Second) {
		return cred.AccessToken, nil
	}
	if !cred.HasRefreshToken() {
		return "", nil
	}
	return m.Refresh(ctx, userID, *cred.RefreshToken)
}

// Refresh runs the refresh-token grant and updates the stored access token in
// place. The refresh token only changes when the provider rotates it.
func (m *TokenManager) Refresh(ctx context.Context, userID, refreshToken string) (string, error) {
	v, err, shared := m.refreshGroup.Do(userID, func() (any, error) {
		// Detached so one caller going away does not fail the others waiting on it.
		return m.refresh(context.WithoutCancel(ctx), userID, refreshToken)
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.logger.Debug("oauth refresh shared", zap.String("user_id", userID))
	}
	return v.(string), nil
}

func (m *TokenManager) refresh(ctx context.Context, userID, refreshToken string) (string, error) {
	grant, err := m.provider.RefreshToken(ctx, refreshToken)
	if err != nil {
		m.logger.Warn("oauth refresh failed", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	expiresAt := m.now().Unix() + grant.ExpiresIn
	if err := m.credentials.UpdateAccessToken(ctx, userID, m.providerName, grant.AccessToken, expiresAt, grant.RefreshToken); err != nil {
		return "", fmt.Errorf("store refreshed %s token: %w", m.providerName, err)
	}
	return grant.AccessToken, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
