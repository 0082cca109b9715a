package delivery

import (
	"net/http"
	"strconv"
	"time"

	"nexus-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit counts requests per resolved identity, falling back to the client
// address for anonymous callers. It must run after Gate.
func RateLimit(counter ratelimit.Counter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := FromContext(c)
		key := c.ClientIP()
		if !id.IsAnonymous() {
			key = string(id.Kind) + ":" + id.ID
		}

		decision, err := counter.Allow(c.Request.Context(), key)
		if err != nil {
			// Counter storage outages do not block traffic.
			logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		resetSeconds := int(time.Until(decision.ResetAt).Round(time.Second) / time.Second)
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetSeconds))

		if !decision.Allowed {
			body := gin.H{
				"error": "Rate limit exceeded",
				"limit_info": gin.H{
					"requests_made": decision.Used,
					"requests_left": decision.Remaining,
					"reset_time":    decision.ResetAt.UTC().Format(time.RFC3339),
				},
			}
			if !id.IsAnonymous() {
				body["client_id"] = id.ID
			}
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
			return
		}

		c.Next()
	}
}
