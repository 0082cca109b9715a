package delivery

import (
	"errors"
	"net/http"

	authdto "nexus-backend/internal/auth/dto"
	"nexus-backend/internal/auth/usecase"
	identitydelivery "nexus-backend/internal/identity/delivery"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves account registration and session endpoints.
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authUsecase usecase.AuthUsecase, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger,
	}
}

// Register creates an account and returns a session
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req authdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	resp, err := h.authUsecase.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "EMAIL_TAKEN"})
			return
		}
		h.internalError(c, "register failed", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges email and password for a session
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	resp, err := h.authUsecase.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "INVALID_CREDENTIALS"})
			return
		}
		h.internalError(c, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken rotates a refresh token into a new session
// POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	resp, err := h.authUsecase.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) || errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "INVALID_TOKEN"})
			return
		}
		h.internalError(c, "refresh failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes a refresh token
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.internalError(c, "logout failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the account behind the current session
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	id := identitydelivery.FromContext(c)
	if id == nil || id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "MISSING_TOKEN"})
		return
	}

	user, err := h.authUsecase.GetUser(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "USER_NOT_FOUND"})
			return
		}
		h.internalError(c, "load user failed", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL_ERROR"})
}
