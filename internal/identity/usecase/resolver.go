package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "nexus-backend/internal/auth/domain"
	authusecase "nexus-backend/internal/auth/usecase"
	demodomain "nexus-backend/internal/demo/domain"
	"nexus-backend/internal/identity/domain"

	"go.uber.org/zap"
)

var (
	ErrMissingCredential = errors.New("authorization token required")
	ErrInvalidCredential = errors.New("invalid or expired token")
	ErrUserNotFound      = errors.New("user not found")
)

// SessionVerifier is the primary identity provider.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*authdomain.Session, error)
}

// GrantVerifier verifies demo grants.
type GrantVerifier interface {
	Verify(token string) (*demodomain.Grant, error)
}

// Credentials are the raw inputs of one request.
type Credentials struct {
	// BearerToken is the session token from the Authorization header, if any.
	BearerToken string
	// DemoGrant is the demo-grant header value, if any.
	DemoGrant string
	// AllowAnonymous lets a request without a bearer token resolve to the
	// anonymous identity instead of being rejected.
	AllowAnonymous bool
}

// Resolver turns request credentials into exactly one Identity: the primary
// session stage first, then the demo-grant overlay.
type Resolver struct {
	sessions SessionVerifier
	grants   GrantVerifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewResolver(sessions SessionVerifier, grants GrantVerifier, logger *zap.Logger) *Resolver {
	return &Resolver{sessions: sessions, grants: grants, logger: logger, now: time.Now}
}

// Resolve fails with ErrMissingCredential, ErrInvalidCredential or
// ErrUserNotFound; any other error is a store failure.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*domain.Identity, error) {
	primary, err := r.resolvePrimary(ctx, creds)
	if err != nil {
		return nil, err
	}
	return r.overlayDemo(primary, creds.DemoGrant), nil
}

func (r *Resolver) resolvePrimary(ctx context.Context, creds Credentials) (*domain.Identity, error) {
	if creds.BearerToken == "" {
		if !creds.AllowAnonymous {
			return nil, ErrMissingCredential
		}
		// Unauthenticated demo traffic is open by default.
		return &domain.Identity{
			ID:           domain.AnonymousID,
			Kind:         domain.KindAnonymous,
			Capabilities: domain.Capabilities{domain.CapabilityAll},
			IssuedAt:     r.now(),
		}, nil
	}

	session, err := r.sessions.VerifySession(ctx, creds.BearerToken)
	switch {
	case errors.Is(err, authusecase.ErrUserNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, authusecase.ErrInvalidSession):
		return nil, ErrInvalidCredential
	case err != nil:
		return nil, fmt.Errorf("verify session: %w", err)
	}

	expiresAt := session.ExpiresAt
	return &domain.Identity{
		ID:           session.UserID,
		Kind:         domain.KindAuthenticated,
		UserID:       session.UserID,
		Capabilities: domain.Capabilities{domain.CapabilityAll},
		IssuedAt:     session.IssuedAt,
		ExpiresAt:    &expiresAt,
	}, nil
}

// overlayDemo never rejects: a grant that fails verification leaves the
// primary identity untouched.
func (r *Resolver) overlayDemo(primary *domain.Identity, grantToken string) *domain.Identity {
	if grantToken == "" {
		return primary
	}

	grant, err := r.grants.Verify(grantToken)
	if err != nil {
		r.logger.Debug("ignoring demo grant", zap.String("identity_id", primary.ID), zap.Error(err))
		return primary
	}

	expiresAt := grant.ExpiresAt
	return &domain.Identity{
		ID:           grant.ClientID,
		Kind:         domain.KindDemo,
		UserID:       primary.UserID,
		Capabilities: domain.Capabilities(grant.Capabilities),
		IssuedAt:     grant.IssuedAt,
		ExpiresAt:    &expiresAt,
	}
}
