package domain

import "time"

// OAuthCredential is the stored token pair for one (user, provider).
type OAuthCredential struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider     string    `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	AccessToken  string    `json:"-"`
	RefreshToken *string   `json:"-"`
	ExpiresAt    int64     `json:"expires_at"` // epoch seconds
	Scopes       *string   `json:"scopes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OAuthCredential) TableName() string {
	return "user_credentials"
}

// HasRefreshToken reports whether the credential can recover from expiry.
func (c *OAuthCredential) HasRefreshToken() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// WorkflowPreferences holds per-user settings for one workflow.
type WorkflowPreferences struct {
	ID            uint      `json:"-" gorm:"primaryKey"`
	UserID        string    `json:"-" gorm:"uniqueIndex:idx_user_workflow;not null"`
	WorkflowKey   string    `json:"-" gorm:"column:workflow;uniqueIndex:idx_user_workflow;not null"`
	DriveFolderID *string   `json:"drive_folder_id"`
	SpreadsheetID *string   `json:"spreadsheet_id"`
	Range         *string   `json:"range"`
	UpdatedAt     time.Time `json:"-"`
}

func (WorkflowPreferences) TableName() string {
	return "user_workflow_prefs"
}
