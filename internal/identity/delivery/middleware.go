package delivery

import (
	"errors"
	"net/http"
	"strings"

	"nexus-backend/internal/identity/domain"
	"nexus-backend/internal/identity/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DemoGrantHeader carries a demo grant alongside (or instead of) a session token.
const DemoGrantHeader = "X-Demo-Grant"

const identityKey = "identity"

// Gate resolves the caller identity and stores it in the gin context. With
// allowAnonymous a request without a bearer token continues as anonymous.
func Gate(resolver *usecase.Resolver, allowAnonymous bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := usecase.Credentials{
			BearerToken:    bearerToken(c.GetHeader("Authorization")),
			DemoGrant:      strings.TrimSpace(c.GetHeader(DemoGrantHeader)),
			AllowAnonymous: allowAnonymous,
		}

		id, err := resolver.Resolve(c.Request.Context(), creds)
		if err != nil {
			status, body := rejection(err)
			if status == http.StatusInternalServerError {
				logger.Error("identity resolution failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		SetIdentity(c, id)
		c.Next()
	}
}

// SetIdentity stores id for FromContext.
func SetIdentity(c *gin.Context, id *domain.Identity) {
	c.Set(identityKey, id)
}

// FromContext returns the identity resolved by Gate.
func FromContext(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

// bearerToken returns "" for a missing or non-Bearer Authorization header.
func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func rejection(err error) (int, gin.H) {
	switch {
	case errors.Is(err, usecase.ErrMissingCredential):
		return http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "MISSING_TOKEN"}
	case errors.Is(err, usecase.ErrInvalidCredential):
		return http.StatusForbidden, gin.H{"error": "invalid or expired token", "code": "INVALID_TOKEN"}
	case errors.Is(err, usecase.ErrUserNotFound):
		return http.StatusForbidden, gin.H{"error": "user not found", "code": "USER_NOT_FOUND"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal authentication error", "code": "AUTH_ERROR"}
	}
}
