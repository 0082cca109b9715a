package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexus-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newMiddlewareRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/thing", ok)
	r.POST("/api/thing", ok)
	r.OPTIONS("/api/thing", ok)
	return r
}

func TestRequireJSON(t *testing.T) {
	r := newMiddlewareRouter(RequireJSON())

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "json post", method: http.MethodPost, contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "form post", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "missing type", method: http.MethodPost, want: http.StatusUnsupportedMediaType},
		{name: "get ignores type", method: http.MethodGet, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/thing", bytes.NewBufferString(`{}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	r := newMiddlewareRouter(CORS([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/thing", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	r := newMiddlewareRouter(RequestLogger(zap.NewNop()), SecurityHeaders())

	req := httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestThrottle(t *testing.T) {
	// 10 rpm gives a burst of one.
	r := newMiddlewareRouter(Throttle(ratelimit.NewIPLimiter(10)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	open := newMiddlewareRouter(Throttle(nil))
	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
