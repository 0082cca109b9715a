package api

import (
	authdelivery "nexus-backend/internal/auth/delivery"
	authusecase "nexus-backend/internal/auth/usecase"
	identitydelivery "nexus-backend/internal/identity/delivery"
	identityusecase "nexus-backend/internal/identity/usecase"
	oauthdelivery "nexus-backend/internal/oauth/delivery"
	workflowdelivery "nexus-backend/internal/workflow/delivery"
	"nexus-backend/pkg/config"
	"nexus-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler owns the HTTP surface of the gateway.
type Handler struct {
	config          *config.Config
	logger          *zap.Logger
	resolver        *identityusecase.Resolver
	workflowCounter ratelimit.Counter
	ipLimiter       *ratelimit.IPLimiter

	authHandler     *authdelivery.AuthHandler
	oauthHandler    *oauthdelivery.OAuthHandler
	workflowHandler *workflowdelivery.WorkflowHandler
}

// Deps are the collaborators NewHandler wires into routes.
type Deps struct {
	AuthUsecase     authusecase.AuthUsecase
	Resolver        *identityusecase.Resolver
	OAuthHandler    *oauthdelivery.OAuthHandler
	WorkflowHandler *workflowdelivery.WorkflowHandler
	// WorkflowCounter limits workflow execution per identity.
	WorkflowCounter ratelimit.Counter
}

func NewHandler(cfg *config.Config, logger *zap.Logger, deps Deps) *Handler {
	return &Handler{
		config:          cfg,
		logger:          logger,
		resolver:        deps.Resolver,
		workflowCounter: deps.WorkflowCounter,
		ipLimiter:       ratelimit.NewIPLimiter(cfg.APIRateLimitRPM),
		authHandler:     authdelivery.NewAuthHandler(deps.AuthUsecase, logger),
		oauthHandler:    deps.OAuthHandler,
		workflowHandler: deps.WorkflowHandler,
	}
}

// Engine builds the gin engine with middleware and routes.
func (h *Handler) Engine() *gin.Engine {
	if h.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.logger))
	r.Use(SecurityHeaders())
	r.Use(CORS(h.config.CORSAllowedOrigins))

	SetupRoutes(r, h)
	return r
}

// Start serves on addr until the listener fails.
func (h *Handler) Start(addr string) error {
	h.logger.Info("server starting", zap.String("addr", addr))
	return h.Engine().Run(addr)
}

func (h *Handler) authenticated() gin.HandlerFunc {
	return identitydelivery.Gate(h.resolver, false, h.logger)
}

func (h *Handler) allowAnonymous() gin.HandlerFunc {
	return identitydelivery.Gate(h.resolver, true, h.logger)
}
