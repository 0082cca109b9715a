package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newProvider(t *testing.T, handler http.HandlerFunc) (*OAuthProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	endpoint := oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return NewOAuthProviderWithEndpoint("client-id", "client-secret", []string{"scope-a"}, endpoint, srv.Client()), srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestExchangeAuthCode(t *testing.T) {
	var form url.Values
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		writeJSON(w, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    3599,
			"scope":         "scope-a",
			"token_type":    "Bearer",
		})
	})

	grant, err := p.ExchangeAuthCode(context.Background(), "code-123", "https://app.example.com/oauth/google/callback")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "code-123", form.Get("code"))
	assert.Equal(t, "https://app.example.com/oauth/google/callback", form.Get("redirect_uri"))
	assert.Equal(t, "access-1", grant.AccessToken)
	assert.Equal(t, "refresh-1", grant.RefreshToken)
	assert.InDelta(t, 3599, grant.ExpiresIn, 1)
	assert.Equal(t, "scope-a", grant.Scope)
}

func TestRefreshToken_KeepsRefreshTokenUnlessRotated(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		writeJSON(w, map[string]any{
			"access_token": "access-2",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})

	grant, err := p.RefreshToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", grant.AccessToken)
	assert.Empty(t, grant.RefreshToken)
}

func TestRefreshToken_Rotated(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"token_type":    "Bearer",
		})
	})

	grant, err := p.RefreshToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", grant.RefreshToken)
	assert.Equal(t, int64(defaultExpiresIn), grant.ExpiresIn)
}

func TestRefreshToken_RevokedGrant(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := p.RefreshToken(context.Background(), "refresh-1")
	require.Error(t, err)
}

func TestRefreshToken_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewOAuthProviderWithEndpoint("id", "secret", nil, oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams}, &http.Client{Timeout: 20 * time.Millisecond})
	_, err := p.RefreshToken(context.Background(), "refresh-1")
	require.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	raw := p.AuthCodeURL("https://app.example.com/oauth/google/callback", "state-token")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.True(t, strings.HasSuffix(u.Path, "/auth"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "scope-a", q.Get("scope"))
}
