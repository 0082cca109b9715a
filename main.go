package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "nexus-backend/cmd/api"
	authdomain "nexus-backend/internal/auth/domain"
	authrepo "nexus-backend/internal/auth/repository"
	authusecase "nexus-backend/internal/auth/usecase"
	credentialdomain "nexus-backend/internal/credential/domain"
	credentialrepo "nexus-backend/internal/credential/repository"
	demousecase "nexus-backend/internal/demo/usecase"
	identityusecase "nexus-backend/internal/identity/usecase"
	oauthdelivery "nexus-backend/internal/oauth/delivery"
	oauthusecase "nexus-backend/internal/oauth/usecase"
	workflowdelivery "nexus-backend/internal/workflow/delivery"
	workflowdomain "nexus-backend/internal/workflow/domain"
	workflowusecase "nexus-backend/internal/workflow/usecase"
	"nexus-backend/pkg/config"
	"nexus-backend/pkg/database"
	"nexus-backend/pkg/google"
	"nexus-backend/pkg/logger"
	"nexus-backend/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer func() { _ = zl.Sync() }()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &credentialdomain.OAuthCredential{}, &credentialdomain.WorkflowPreferences{}); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize repositories (dependency injection)
	userRepo := authrepo.NewUserRepository(db)
	credentialRepo := credentialrepo.NewCredentialRepository(db)
	preferencesRepo := credentialrepo.NewPreferencesRepository(db)

	// Identity
	authUc := authusecase.NewAuthUsecase(userRepo, cfg, zl)
	issuer := demousecase.NewIssuer(cfg.DemoTokenSecret)
	resolver := identityusecase.NewResolver(authUc, issuer, zl)

	// Google credentials
	provider := google.NewOAuthProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleScopes, cfg.ProviderTimeout)
	tokens := oauthusecase.NewTokenManager(credentialRepo, provider, cfg.OAuthStateSecret, cfg.GoogleRedirectURI, zl)
	if cfg.GoogleClientID == "" {
		zl.Warn("GOOGLE_CLIENT_ID not set, Google connect flow will fail")
	}

	// Workflows
	registry := workflowdomain.NewRegistry(workflowConfigs(cfg.Workflows)...)
	workflowUc := workflowusecase.NewWorkflowUsecase(workflowusecase.Options{
		Access:      workflowusecase.NewAccessController(registry),
		Dispatcher:  workflowusecase.NewHTTPDispatcher(&http.Client{}, zl),
		Tokens:      map[string]workflowusecase.TokenSource{google.ProviderName: tokens},
		Preferences: preferencesRepo,
		Drive:       google.NewDriveClient(cfg.ProviderTimeout),
		InvoiceProcessor: workflowdomain.Config{
			Type:     "invoice_processor",
			Endpoint: cfg.N8NWebhookURL,
			Source:   "invoice-processor",
			Timeout:  cfg.InvoiceDispatchTimeout,
		},
		Logger: zl,
	})
	zl.Info("workflow registry loaded", zap.Int("workflows", len(registry.All())))

	handler := api.NewHandler(cfg, zl, api.Deps{
		AuthUsecase:     authUc,
		Resolver:        resolver,
		OAuthHandler:    oauthdelivery.NewOAuthHandler(tokens, cfg.OAuthSuccessRedirect, cfg.OAuthFailRedirect, zl),
		WorkflowHandler: workflowdelivery.NewWorkflowHandler(workflowUc, issuer, zl),
		WorkflowCounter: newWorkflowCounter(cfg, zl),
	})

	// Start server
	if err := handler.Start(":" + cfg.Port); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

// newWorkflowCounter shares counters through Redis when REDIS_ADDR is set,
// otherwise counts per process.
func newWorkflowCounter(cfg *config.Config, zl *zap.Logger) ratelimit.Counter {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Warn("redis unavailable, rate limit counters fail open until it recovers", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return ratelimit.NewRedisWindow(client, cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
}

func workflowConfigs(defs []config.WorkflowDefinition) []workflowdomain.Config {
	out := make([]workflowdomain.Config, 0, len(defs))
	for _, d := range defs {
		out = append(out, workflowdomain.Config{
			Type:               d.Type,
			Endpoint:           d.Endpoint,
			RequiredCapability: d.RequiredCapability,
			Description:        d.Description,
			Token:              d.Token,
			Source:             d.Source,
			RequiresProvider:   d.RequiresProvider,
			Requires:           d.Requires,
			PreferencesKey:     d.PreferencesKey,
			Timeout:            d.Timeout,
		})
	}
	return out
}
