package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "change-me"

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	OAuthStateSecret string
	DemoTokenSecret  string

	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURI    string
	GoogleScopes         []string
	OAuthSuccessRedirect string
	OAuthFailRedirect    string
	ProviderTimeout      time.Duration

	N8NWebhookBaseURL      string
	N8NWebhookURL          string
	DispatchTimeout        time.Duration
	InvoiceDispatchTimeout time.Duration
	Workflows              []WorkflowDefinition

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	APIRateLimitRPM      int
	RedisAddr            string
	RedisPassword        string
	RedisDB              int

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	environment := getEnv("APP_ENV", "development")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if environment != "development" {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		jwtSecret = devJWTSecret
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: environment,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:        jwtSecret,
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days
		OAuthStateSecret: getEnv("OAUTH_STATE_SECRET", jwtSecret),
		DemoTokenSecret:  getEnv("DEMO_TOKEN_SECRET", jwtSecret),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:    getEnv("GOOGLE_REDIRECT_URI", ""),
		GoogleScopes:         getList("GOOGLE_SCOPES", []string{"https://www.googleapis.com/auth/drive.readonly"}),
		OAuthSuccessRedirect: getEnv("OAUTH_SUCCESS_REDIRECT", ""),
		OAuthFailRedirect:    getEnv("OAUTH_FAIL_REDIRECT", ""),
		ProviderTimeout:      getDuration("PROVIDER_TIMEOUT", 10*time.Second),

		N8NWebhookBaseURL:      strings.TrimSuffix(getEnv("N8N_WEBHOOK_BASE_URL", ""), "/"),
		N8NWebhookURL:          getEnv("N8N_WEBHOOK_URL", ""),
		DispatchTimeout:        getDuration("DISPATCH_TIMEOUT", 30*time.Second),
		InvoiceDispatchTimeout: getDuration("INVOICE_DISPATCH_TIMEOUT", 15*time.Second),

		RateLimitWindow:      getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMaxRequests: getInt("RATE_LIMIT_MAX_REQUESTS", 10),
		APIRateLimitRPM:      getInt("API_RATE_LIMIT_RPM", 120),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	workflows, err := loadWorkflows(os.Getenv("WORKFLOWS_FILE"), cfg)
	if err != nil {
		return nil, fmt.Errorf("load workflows: %w", err)
	}
	cfg.Workflows = workflows

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
