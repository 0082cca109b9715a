package delivery

import (
	"errors"
	"net/http"
	"strings"

	identitydelivery "nexus-backend/internal/identity/delivery"
	"nexus-backend/internal/oauth/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OAuthHandler drives the Google connect flow.
type OAuthHandler struct {
	tokens          *usecase.TokenManager
	successRedirect string
	failRedirect    string
	logger          *zap.Logger
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(tokens *usecase.TokenManager, successRedirect, failRedirect string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		tokens:          tokens,
		successRedirect: successRedirect,
		failRedirect:    failRedirect,
		logger:          logger,
	}
}

// GetAuthURL returns the Google consent URL for the current user
// GET /api/oauth/google/url
func (h *OAuthHandler) GetAuthURL(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "MISSING_TOKEN"})
		return
	}

	authURL, err := h.tokens.BuildAuthURL(BaseURL(c), userID)
	if err != nil {
		h.logger.Error("build google auth url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build Google auth URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// Callback receives Google's redirect. It is public: the state token is the
// only link back to the user.
// GET /oauth/google/callback
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.String(http.StatusBadRequest, "Missing code or state")
		return
	}

	userID, _, err := h.tokens.ExchangeAuthorizationCode(c.Request.Context(), BaseURL(c), code, state)
	if err != nil {
		h.logger.Warn("google callback failed", zap.Error(err))
		if h.failRedirect != "" {
			c.Redirect(http.StatusFound, h.failRedirect)
			return
		}
		if errors.Is(err, usecase.ErrInvalidOAuthState) {
			c.String(http.StatusBadRequest, "Invalid or expired OAuth state")
			return
		}
		c.String(http.StatusInternalServerError, "Error connecting Google account")
		return
	}

	h.logger.Info("google account connected", zap.String("user_id", userID))
	if h.successRedirect != "" {
		c.Redirect(http.StatusFound, h.successRedirect)
		return
	}
	c.String(http.StatusOK, "Google account connected. You can close this tab.")
}

// Status reports whether the current user has a usable Google token
// GET /api/oauth/google/status
func (h *OAuthHandler) Status(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "MISSING_TOKEN"})
		return
	}

	token, err := h.tokens.GetUsableAccessToken(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, usecase.ErrRefreshFailed) {
		h.logger.Error("google connection status", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve Google connection status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": token != ""})
}

// BaseURL is the externally visible scheme and host of the request, honouring
// reverse-proxy headers.
func BaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	proto = strings.TrimSpace(strings.Split(proto, ",")[0])

	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func currentUserID(c *gin.Context) string {
	if id := identitydelivery.FromContext(c); id != nil {
		return id.UserID
	}
	return ""
}
