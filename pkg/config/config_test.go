package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RequiresJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEMO_TOKEN_SECRET", "")
	t.Setenv("WORKFLOWS_FILE", "")
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, devJWTSecret, cfg.DemoTokenSecret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OAUTH_STATE_SECRET", "")
	t.Setenv("DEMO_TOKEN_SECRET", "")
	t.Setenv("N8N_WEBHOOK_BASE_URL", "https://n8n.example.com/webhook/")
	t.Setenv("WORKFLOWS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.OAuthStateSecret)
	assert.Equal(t, "s3cret", cfg.DemoTokenSecret)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	require.Len(t, cfg.Workflows, 4)

	invoice := cfg.Workflows[1]
	assert.Equal(t, "invoice_ocr", invoice.Type)
	assert.Equal(t, "https://n8n.example.com/webhook/demo/invoice-ocr", invoice.Endpoint)
	assert.Equal(t, "invoice_ocr", invoice.RequiredCapability)
	assert.Equal(t, "google", invoice.RequiresProvider)
	assert.Equal(t, 30*time.Second, invoice.Timeout)
}

func TestLoad_WorkflowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workflows:
  - type: summarize
    endpoint: https://n8n.example.com/webhook/summarize
    description: Summarize a document
    timeout: 5s
  - type: translate
    endpoint: https://n8n.example.com/webhook/translate
    required_capability: language
`), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("WORKFLOWS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Workflows, 2)
	assert.Equal(t, 5*time.Second, cfg.Workflows[0].Timeout)
	assert.Equal(t, "summarize", cfg.Workflows[0].RequiredCapability)
	assert.Equal(t, "language", cfg.Workflows[1].RequiredCapability)
}

func TestLoad_RejectsDuplicateWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workflows:
  - type: summarize
  - type: summarize
`), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("WORKFLOWS_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestGetList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, getList("CORS_ALLOWED_ORIGINS", nil))

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, []string{"*"}, getList("CORS_ALLOWED_ORIGINS", []string{"*"}))
}
