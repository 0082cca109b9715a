package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	credentialdomain "nexus-backend/internal/credential/domain"
	"nexus-backend/internal/credential/repository"
	identitydomain "nexus-backend/internal/identity/domain"
	oauthusecase "nexus-backend/internal/oauth/usecase"
	"nexus-backend/internal/workflow/domain"
	"nexus-backend/internal/workflow/dto"
	"nexus-backend/pkg/google"

	"go.uber.org/zap"
)

const defaultFileLimit = 50

var connectEndpoints = map[string]string{
	google.ProviderName: "/api/oauth/google/url",
}

// Options wires a WorkflowUsecase.
type Options struct {
	Access     *AccessController
	Dispatcher Dispatcher
	// Tokens maps a provider name to its token source.
	Tokens      map[string]TokenSource
	Preferences repository.PreferencesRepository
	Drive       FolderLister
	// InvoiceProcessor is the webhook behind ProcessInvoice.
	InvoiceProcessor domain.Config
	Logger           *zap.Logger
}

type workflowUsecase struct {
	access      *AccessController
	dispatcher  Dispatcher
	tokens      map[string]TokenSource
	preferences repository.PreferencesRepository
	drive       FolderLister
	invoice     domain.Config
	logger      *zap.Logger
	now         func() time.Time
}

// NewWorkflowUsecase creates a new WorkflowUsecase
func NewWorkflowUsecase(opts Options) WorkflowUsecase {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &workflowUsecase{
		access:      opts.Access,
		dispatcher:  opts.Dispatcher,
		tokens:      opts.Tokens,
		preferences: opts.Preferences,
		drive:       opts.Drive,
		invoice:     opts.InvoiceProcessor,
		logger:      logger,
		now:         time.Now,
	}
}

func (u *workflowUsecase) Execute(ctx context.Context, id *identitydomain.Identity, req *dto.ExecuteRequest, requestID string) (*dto.ExecuteResponse, error) {
	if req.WorkflowType == "" {
		return nil, ErrWorkflowTypeRequired
	}

	cfg, err := u.access.Authorize(id, req.WorkflowType)
	if err != nil {
		return nil, err
	}

	var payload any = req.Data
	if cfg.RequiresProvider != "" && id.Kind == identitydomain.KindAuthenticated {
		payload, err = u.providerPayload(ctx, cfg, id.UserID, req.Data)
		if err != nil {
			return nil, err
		}
	}

	result, err := u.dispatcher.Dispatch(ctx, Call{
		Config:    cfg,
		Payload:   payload,
		ClientID:  id.ID,
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("workflow executed",
		zap.String("workflow_type", cfg.Type),
		zap.String("client_id", id.ID),
		zap.String("kind", string(id.Kind)),
	)

	return &dto.ExecuteResponse{
		Success:       true,
		Data:          rawBody(result.Body),
		WorkflowType:  cfg.Type,
		ClientID:      id.ID,
		ExecutionTime: u.now().UTC(),
	}, nil
}

// providerPayload adds the user's provider token and stored preferences to data.
func (u *workflowUsecase) providerPayload(ctx context.Context, cfg domain.Config, userID string, data json.RawMessage) (map[string]any, error) {
	token, err := u.usableToken(ctx, cfg.RequiresProvider, userID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrThirdPartyNotConnected, cfg.RequiresProvider)
	}

	payload := map[string]any{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			// Non-object data is kept under its own key.
			payload = map[string]any{"data": data}
		}
	}
	payload[cfg.RequiresProvider+"_access_token"] = token

	if cfg.PreferencesKey != "" && u.preferences != nil {
		prefs, err := u.preferences.GetPreferences(ctx, userID, cfg.PreferencesKey)
		if err != nil {
			return nil, fmt.Errorf("%w: load preferences: %v", domain.ErrLocalFailure, err)
		}
		payload["preferences"] = toPreferencesDTO(prefs)
	}
	return payload, nil
}

// usableToken maps refresh failures to ErrThirdPartyNotConnected; the fix for
// both is reconnecting the account.
func (u *workflowUsecase) usableToken(ctx context.Context, provider, userID string) (string, error) {
	src, ok := u.tokens[provider]
	if !ok {
		return "", fmt.Errorf("%w: no token source for %s", domain.ErrThirdPartyNotConnected, provider)
	}
	token, err := src.GetUsableAccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, oauthusecase.ErrRefreshFailed) {
			return "", fmt.Errorf("%w: %v", domain.ErrThirdPartyNotConnected, err)
		}
		return "", err
	}
	return token, nil
}

func (u *workflowUsecase) ProcessInvoice(ctx context.Context, id *identitydomain.Identity, tenantID string, body map[string]any, requestID string) (json.RawMessage, error) {
	if tenantID == "" {
		tenantID = identitydomain.AnonymousID
		if !id.IsAnonymous() {
			tenantID = id.ID
		}
	}

	payload := make(map[string]any, len(body)+2)
	payload["tenant_id"] = tenantID
	for k, v := range body {
		payload[k] = v
	}
	payload["timestamp"] = u.now().UTC().Format(time.RFC3339Nano)

	clientID := ""
	if id != nil {
		clientID = id.ID
	}
	result, err := u.dispatcher.Dispatch(ctx, Call{
		Config:    u.invoice,
		Payload:   payload,
		ClientID:  clientID,
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}
	return rawBody(result.Body), nil
}

func (u *workflowUsecase) Available(id *identitydomain.Identity) []dto.WorkflowInfo {
	return toInfos(u.access.Available(id))
}

func (u *workflowUsecase) AvailableFor(capabilities []string) []dto.WorkflowInfo {
	return toInfos(u.access.ForCapabilities(capabilities))
}

func (u *workflowUsecase) ListForUser(ctx context.Context, userID string) ([]dto.UserWorkflow, error) {
	connected := map[string]bool{}
	configs := u.access.registry.All()
	out := make([]dto.UserWorkflow, 0, len(configs))

	for _, cfg := range configs {
		entry := dto.UserWorkflow{
			Key:         cfg.Type,
			Description: cfg.Description,
			Requires:    cfg.Requires,
			Connected:   true,
		}
		if entry.Requires == nil {
			entry.Requires = []string{}
		}

		if provider := cfg.RequiresProvider; provider != "" {
			ok, seen := connected[provider]
			if !seen {
				token, err := u.usableToken(ctx, provider, userID)
				if err != nil {
					u.logger.Warn("provider status unavailable", zap.String("provider", provider), zap.String("user_id", userID), zap.Error(err))
				}
				ok = token != ""
				connected[provider] = ok
			}
			entry.Connected = ok
			if !ok {
				if endpoint, found := connectEndpoints[provider]; found {
					entry.Actions = map[string]string{"connect_" + provider + "_url_endpoint": endpoint}
				}
			}
		}

		if cfg.PreferencesKey != "" && u.preferences != nil {
			prefs, err := u.preferences.GetPreferences(ctx, userID, cfg.PreferencesKey)
			if err != nil {
				u.logger.Warn("load workflow preferences", zap.String("workflow_type", cfg.Type), zap.Error(err))
			}
			entry.Prefs = toPreferencesDTO(prefs)
		}

		out = append(out, entry)
	}
	return out, nil
}

func (u *workflowUsecase) GetInvoicePreferences(ctx context.Context, userID string) (*dto.InvoicePreferences, error) {
	prefs, err := u.preferences.GetPreferences(ctx, userID, InvoicePreferencesKey)
	if err != nil {
		return nil, err
	}
	return toPreferencesDTO(prefs), nil
}

// SaveInvoicePreferences stores prefs; empty fields keep the stored value.
func (u *workflowUsecase) SaveInvoicePreferences(ctx context.Context, userID string, prefs *dto.InvoicePreferences) (*dto.InvoicePreferences, error) {
	previous, err := u.preferences.GetPreferences(ctx, userID, InvoicePreferencesKey)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		previous = &credentialdomain.WorkflowPreferences{}
	}

	row := &credentialdomain.WorkflowPreferences{
		UserID:        userID,
		WorkflowKey:   InvoicePreferencesKey,
		DriveFolderID: keep(prefs.DriveFolderID, previous.DriveFolderID),
		SpreadsheetID: keep(prefs.SpreadsheetID, previous.SpreadsheetID),
		Range:         keep(prefs.Range, previous.Range),
	}
	if err := u.preferences.UpsertPreferences(ctx, row); err != nil {
		return nil, err
	}
	return toPreferencesDTO(row), nil
}

func (u *workflowUsecase) ListInvoiceFiles(ctx context.Context, userID string, limit int64) ([]google.DriveFile, error) {
	if limit <= 0 || limit > 1000 {
		limit = defaultFileLimit
	}

	prefs, err := u.preferences.GetPreferences(ctx, userID, InvoicePreferencesKey)
	if err != nil {
		return nil, err
	}
	if prefs == nil || prefs.DriveFolderID == nil || *prefs.DriveFolderID == "" {
		return nil, ErrFolderNotConfigured
	}

	token, err := u.usableToken(ctx, google.ProviderName, userID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrThirdPartyNotConnected, google.ProviderName)
	}

	files, err := u.drive.ListFolder(ctx, token, *prefs.DriveFolderID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
	return files, nil
}

func toInfos(configs []domain.Config) []dto.WorkflowInfo {
	out := make([]dto.WorkflowInfo, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, dto.WorkflowInfo{
			Type:        cfg.Type,
			Description: cfg.Description,
			Requires:    cfg.Requires,
		})
	}
	return out
}

// rawBody passes JSON through untouched and quotes anything else.
func rawBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

func keep(incoming, previous *string) *string {
	if incoming != nil && *incoming != "" {
		return incoming
	}
	return previous
}
