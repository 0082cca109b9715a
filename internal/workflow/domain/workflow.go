package domain

import "time"

// Config describes one workflow the gateway can dispatch. It is loaded at
// startup and never changes.
type Config struct {
	Type               string
	Endpoint           string
	RequiredCapability string
	Description        string
	// Token is sent upstream as X-Demo-Token.
	Token string
	// Source is sent upstream as X-Request-Source when set.
	Source string
	// RequiresProvider names the OAuth provider whose access token the
	// payload must carry for authenticated users.
	RequiresProvider string
	Requires         []string
	PreferencesKey   string
	Timeout          time.Duration
}

// Registry is the ordered, immutable set of known workflows.
type Registry struct {
	ordered []Config
	byType  map[string]Config
}

func NewRegistry(configs ...Config) *Registry {
	r := &Registry{byType: make(map[string]Config, len(configs))}
	for _, cfg := range configs {
		if cfg.RequiredCapability == "" {
			cfg.RequiredCapability = cfg.Type
		}
		if _, dup := r.byType[cfg.Type]; dup {
			continue
		}
		r.ordered = append(r.ordered, cfg)
		r.byType[cfg.Type] = cfg
	}
	return r
}

func (r *Registry) Get(workflowType string) (Config, bool) {
	cfg, ok := r.byType[workflowType]
	return cfg, ok
}

// All returns the workflows in registration order.
func (r *Registry) All() []Config {
	out := make([]Config, len(r.ordered))
	copy(out, r.ordered)
	return out
}
