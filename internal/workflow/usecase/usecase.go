package usecase

import (
	"context"
	"encoding/json"
	"errors"

	credentialdomain "nexus-backend/internal/credential/domain"
	identitydomain "nexus-backend/internal/identity/domain"
	"nexus-backend/internal/workflow/dto"
	"nexus-backend/pkg/google"
)

// InvoicePreferencesKey is the preferences row used by the invoice workflow.
const InvoicePreferencesKey = "invoice"

var (
	ErrWorkflowTypeRequired = errors.New("workflow type required")
	ErrFolderNotConfigured  = errors.New("drive folder not configured")
)

// TokenSource hands out usable third-party access tokens.
type TokenSource interface {
	GetUsableAccessToken(ctx context.Context, userID string) (string, error)
}

// FolderLister lists a cloud-storage folder with a user's access token.
type FolderLister interface {
	ListFolder(ctx context.Context, accessToken, folderID string, limit int64) ([]google.DriveFile, error)
}

// WorkflowUsecase runs workflows and manages the per-user settings they use.
type WorkflowUsecase interface {
	Execute(ctx context.Context, id *identitydomain.Identity, req *dto.ExecuteRequest, requestID string) (*dto.ExecuteResponse, error)
	// ProcessInvoice forwards body to the invoice processor webhook.
	ProcessInvoice(ctx context.Context, id *identitydomain.Identity, tenantID string, body map[string]any, requestID string) (json.RawMessage, error)
	Available(id *identitydomain.Identity) []dto.WorkflowInfo
	AvailableFor(capabilities []string) []dto.WorkflowInfo

	ListForUser(ctx context.Context, userID string) ([]dto.UserWorkflow, error)
	GetInvoicePreferences(ctx context.Context, userID string) (*dto.InvoicePreferences, error)
	SaveInvoicePreferences(ctx context.Context, userID string, prefs *dto.InvoicePreferences) (*dto.InvoicePreferences, error)
	ListInvoiceFiles(ctx context.Context, userID string, limit int64) ([]google.DriveFile, error)
}

func toPreferencesDTO(p *credentialdomain.WorkflowPreferences) *dto.InvoicePreferences {
	if p == nil {
		return &dto.InvoicePreferences{}
	}
	return &dto.InvoicePreferences{
		DriveFolderID: p.DriveFolderID,
		SpreadsheetID: p.SpreadsheetID,
		Range:         p.Range,
	}
}
