package delivery

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "nexus-backend/internal/auth/domain"
	authdto "nexus-backend/internal/auth/dto"
	"nexus-backend/internal/auth/usecase"
	identitydelivery "nexus-backend/internal/identity/delivery"
	identitydomain "nexus-backend/internal/identity/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAuth struct {
	usecase.AuthUsecase
	users map[string]*authdomain.User
}

func (f *fakeAuth) Login(_ context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	if req.Password != "secret1" {
		return nil, usecase.ErrInvalidCredentials
	}
	return &authdto.TokenResponse{AccessToken: "at", RefreshToken: "rt"}, nil
}

func (f *fakeAuth) Register(context.Context, *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	return nil, usecase.ErrEmailTaken
}

func (f *fakeAuth) GetUser(_ context.Context, userID string) (*authdomain.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, usecase.ErrUserNotFound
}

func newAuthRouter(id *identitydomain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&fakeAuth{users: map[string]*authdomain.User{"user-1": {ID: "user-1", Email: "a@example.com"}}}, zap.NewNop())

	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)
	r.GET("/api/auth/me", func(c *gin.Context) {
		if id != nil {
			identitydelivery.SetIdentity(c, id)
		}
		c.Next()
	}, h.Me)
	return r
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r := newAuthRouter(nil)

	assert.Equal(t, http.StatusBadRequest, request(r, http.MethodPost, "/api/auth/login", `{"email":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"wrong12"}`).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret1"}`).Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	r := newAuthRouter(nil)
	w := request(r, http.MethodPost, "/api/auth/register", `{"email":"a@example.com","password":"secret1","name":"A"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMe(t *testing.T) {
	w := request(newAuthRouter(nil), http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(newAuthRouter(&identitydomain.Identity{ID: "user-1", UserID: "user-1", Kind: identitydomain.KindAuthenticated}), http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")

	w = request(newAuthRouter(&identitydomain.Identity{ID: "ghost", UserID: "ghost", Kind: identitydomain.KindAuthenticated}), http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
