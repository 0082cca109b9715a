package usecase

import (
	"fmt"

	identitydomain "nexus-backend/internal/identity/domain"
	"nexus-backend/internal/workflow/domain"
)

// AccessController matches identities against the workflow registry.
type AccessController struct {
	registry *domain.Registry
}

func NewAccessController(registry *domain.Registry) *AccessController {
	return &AccessController{registry: registry}
}

// Authorize resolves workflowType for id. An unknown type is always
// ErrUnknownWorkflow, whatever the caller's capabilities.
func (a *AccessController) Authorize(id *identitydomain.Identity, workflowType string) (domain.Config, error) {
	cfg, ok := a.registry.Get(workflowType)
	if !ok {
		return domain.Config{}, fmt.Errorf("%w: %s", domain.ErrUnknownWorkflow, workflowType)
	}
	if id == nil || !id.Capabilities.Allows(cfg.RequiredCapability) {
		return domain.Config{}, &domain.AccessDeniedError{WorkflowType: workflowType, Available: a.Available(id)}
	}
	return cfg, nil
}

// Available lists the registered workflows id may invoke.
func (a *AccessController) Available(id *identitydomain.Identity) []domain.Config {
	return a.ForCapabilities(capabilitiesOf(id))
}

// ForCapabilities lists the registered workflows caps grant.
func (a *AccessController) ForCapabilities(caps identitydomain.Capabilities) []domain.Config {
	out := []domain.Config{}
	for _, cfg := range a.registry.All() {
		if caps.Allows(cfg.RequiredCapability) {
			out = append(out, cfg)
		}
	}
	return out
}

func capabilitiesOf(id *identitydomain.Identity) identitydomain.Capabilities {
	if id == nil {
		return nil
	}
	return id.Capabilities
}
