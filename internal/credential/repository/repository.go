package repository

import (
	"context"

	"nexus-backend/internal/credential/domain"
)

// CredentialRepository stores OAuth credentials keyed by (user, provider).
type CredentialRepository interface {
	// GetCredential returns nil, nil when the user never connected the provider.
	GetCredential(ctx context.Context, userID, provider string) (*domain.OAuthCredential, error)
	// UpsertCredential inserts or replaces the row for (UserID, Provider).
	UpsertCredential(ctx context.Context, cred *domain.OAuthCredential) error
	// UpdateAccessToken rewrites the access token and expiry in place. A non-empty
	// refreshToken replaces the stored one.
	UpdateAccessToken(ctx context.Context, userID, provider, accessToken string, expiresAt int64, refreshToken string) error
}

// PreferencesRepository stores per-user workflow settings keyed by (user, workflow).
type PreferencesRepository interface {
	GetPreferences(ctx context.Context, userID, workflowKey string) (*domain.WorkflowPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *domain.WorkflowPreferences) error
}
