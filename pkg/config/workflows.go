package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WorkflowDefinition describes one automation-engine webhook the gateway can dispatch to.
type WorkflowDefinition struct {
	Type               string        `yaml:"type"`
	Endpoint           string        `yaml:"endpoint"`
	RequiredCapability string        `yaml:"required_capability"`
	Description        string        `yaml:"description"`
	Token              string        `yaml:"token"`
	Source             string        `yaml:"source"`
	RequiresProvider   string        `yaml:"requires_provider"`
	Requires           []string      `yaml:"requires"`
	PreferencesKey     string        `yaml:"preferences_key"`
	Timeout            time.Duration `yaml:"timeout"`
}

type workflowsFile struct {
	Workflows []WorkflowDefinition `yaml:"workflows"`
}

func loadWorkflows(path string, cfg *Config) ([]WorkflowDefinition, error) {
	defs := defaultWorkflows(cfg)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		defs, err = parseWorkflows(raw)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		d := &defs[i]
		if d.Type == "" {
			return nil, fmt.Errorf("workflow %d: type is required", i)
		}
		if seen[d.Type] {
			return nil, fmt.Errorf("workflow %q defined twice", d.Type)
		}
		seen[d.Type] = true
		if d.RequiredCapability == "" {
			d.RequiredCapability = d.Type
		}
		if d.Timeout <= 0 {
			d.Timeout = cfg.DispatchTimeout
		}
	}
	return defs, nil
}

func parseWorkflows(raw []byte) ([]WorkflowDefinition, error) {
	var file workflowsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse workflows file: %w", err)
	}
	return file.Workflows, nil
}

func defaultWorkflows(cfg *Config) []WorkflowDefinition {
	base := cfg.N8NWebhookBaseURL
	endpoint := func(path string) string {
		if base == "" {
			return ""
		}
		return base + path
	}

	return []WorkflowDefinition{
		{
			Type:        "social_media",
			Endpoint:    endpoint("/demo/social-media"),
			Token:       os.Getenv("DEMO_TOKEN_SOCIAL"),
			Description: "Automated social media posting",
		},
		{
			Type:             "invoice_ocr",
			Endpoint:         endpoint("/demo/invoice-ocr"),
			Token:            os.Getenv("DEMO_TOKEN_OCR"),
			Description:      "Extract data from invoice images",
			RequiresProvider: "google",
			Requires:         []string{"google_drive", "google_sheets"},
			PreferencesKey:   "invoice",
		},
		{
			Type:        "contracts",
			Endpoint:    endpoint("/demo/contract-fill"),
			Token:       os.Getenv("DEMO_TOKEN_CONTRACTS"),
			Description: "Automated contract completion",
		},
		{
			Type:        "lead_generation",
			Endpoint:    endpoint("/demo/lead-generation"),
			Token:       os.Getenv("DEMO_TOKEN_LEADS"),
			Description: "Find leads with Apify integration",
		},
	}
}
