package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexus-backend/internal/credential/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCredentialNotFound = errors.New("credential not found")

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a gorm-backed CredentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetCredential(ctx context.Context, userID, provider string) (*domain.OAuthCredential, error) {
	var cred domain.OAuthCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) UpsertCredential(ctx context.Context, cred *domain.OAuthCredential) error {
	cred.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "scopes", "updated_at"}),
	}).Create(cred).Error
}

func (r *credentialRepository) UpdateAccessToken(ctx context.Context, userID, provider, accessToken string, expiresAt int64, refreshToken string) error {
	updates := map[string]any{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}

	res := r.db.WithContext(ctx).Model(&domain.OAuthCredential{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s token for %s: %w", provider, userID, ErrCredentialNotFound)
	}
	return nil
}

type preferencesRepository struct {
	db *gorm.DB
}

// NewPreferencesRepository creates a gorm-backed PreferencesRepository
func NewPreferencesRepository(db *gorm.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) GetPreferences(ctx context.Context, userID, workflowKey string) (*domain.WorkflowPreferences, error) {
	var prefs domain.WorkflowPreferences
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND workflow = ?", userID, workflowKey).
		First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *preferencesRepository) UpsertPreferences(ctx context.Context, prefs *domain.WorkflowPreferences) error {
	prefs.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "workflow"}},
		DoUpdates: clause.AssignmentColumns([]string{"drive_folder_id", "spreadsheet_id", "range", "updated_at"}),
	}).Create(prefs).Error
}
