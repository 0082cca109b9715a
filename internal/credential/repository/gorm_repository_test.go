package repository

import (
	"context"
	"testing"

	"nexus-backend/internal/credential/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.OAuthCredential{}, &domain.WorkflowPreferences{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestCredentialRepository_Upsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	missing, err := repo.GetCredential(ctx, "user-1", "google")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpsertCredential(ctx, &domain.OAuthCredential{
		UserID: "user-1", Provider: "google", AccessToken: "at-1", RefreshToken: strPtr("rt-1"), ExpiresAt: 100,
	}))
	require.NoError(t, repo.UpsertCredential(ctx, &domain.OAuthCredential{
		UserID: "user-1", Provider: "google", AccessToken: "at-2", ExpiresAt: 200, Scopes: strPtr("drive.readonly"),
	}))

	var count int64
	require.NoError(t, db.Model(&domain.OAuthCredential{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	cred, err := repo.GetCredential(ctx, "user-1", "google")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "at-2", cred.AccessToken)
	assert.Equal(t, int64(200), cred.ExpiresAt)
	assert.False(t, cred.HasRefreshToken())
	require.NotNil(t, cred.Scopes)
	assert.Equal(t, "drive.readonly", *cred.Scopes)
}

func TestCredentialRepository_UpdateAccessToken(t *testing.T) {
	repo := NewCredentialRepository(openTestDB(t))
	ctx := context.Background()

	err := repo.UpdateAccessToken(ctx, "nobody", "google", "at", 1, "")
	assert.ErrorIs(t, err, ErrCredentialNotFound)

	require.NoError(t, repo.UpsertCredential(ctx, &domain.OAuthCredential{
		UserID: "user-1", Provider: "google", AccessToken: "old", RefreshToken: strPtr("rt-1"), ExpiresAt: 100,
	}))

	require.NoError(t, repo.UpdateAccessToken(ctx, "user-1", "google", "new", 500, ""))
	cred, err := repo.GetCredential(ctx, "user-1", "google")
	require.NoError(t, err)
	assert.Equal(t, "new", cred.AccessToken)
	assert.Equal(t, int64(500), cred.ExpiresAt)
	assert.Equal(t, "rt-1", *cred.RefreshToken)

	require.NoError(t, repo.UpdateAccessToken(ctx, "user-1", "google", "newer", 900, "rt-2"))
	cred, err = repo.GetCredential(ctx, "user-1", "google")
	require.NoError(t, err)
	assert.Equal(t, "rt-2", *cred.RefreshToken)
}

func TestPreferencesRepository_UpsertTwiceKeepsOneRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewPreferencesRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPreferences(ctx, &domain.WorkflowPreferences{
		UserID: "user-1", WorkflowKey: "invoice", DriveFolderID: strPtr("folder-a"),
	}))
	require.NoError(t, repo.UpsertPreferences(ctx, &domain.WorkflowPreferences{
		UserID: "user-1", WorkflowKey: "invoice", DriveFolderID: strPtr("folder-b"), SpreadsheetID: strPtr("sheet-1"),
	}))

	var count int64
	require.NoError(t, db.Model(&domain.WorkflowPreferences{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	prefs, err := repo.GetPreferences(ctx, "user-1", "invoice")
	require.NoError(t, err)
	require.NotNil(t, prefs)
	assert.Equal(t, "folder-b", *prefs.DriveFolderID)
	assert.Equal(t, "sheet-1", *prefs.SpreadsheetID)
	assert.Nil(t, prefs.Range)

	other, err := repo.GetPreferences(ctx, "user-1", "contracts")
	require.NoError(t, err)
	assert.Nil(t, other)
}
