package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// ProviderName is the credential-store key for Google credentials.
const ProviderName = "google"

const defaultExpiresIn = 3600

// TokenGrant is the normalized result of a token endpoint call.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Scope        string
}

// OAuthProvider talks to Google's authorization server.
type OAuthProvider struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	scopes       []string
	httpClient   *http.Client
}

// NewOAuthProvider uses Google's production endpoints.
func NewOAuthProvider(clientID, clientSecret string, scopes []string, timeout time.Duration) *OAuthProvider {
	return NewOAuthProviderWithEndpoint(clientID, clientSecret, scopes, googleoauth.Endpoint, &http.Client{Timeout: timeout})
}

func NewOAuthProviderWithEndpoint(clientID, clientSecret string, scopes []string, endpoint oauth2.Endpoint, httpClient *http.Client) *OAuthProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     endpoint,
		scopes:       scopes,
		httpClient:   httpClient,
	}
}

func (p *OAuthProvider) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint:     p.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       p.scopes,
	}
}

func (p *OAuthProvider) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL builds the consent URL. Offline access plus forced consent makes
// Google return a refresh token on every authorization.
func (p *OAuthProvider) AuthCodeURL(redirectURI, state string) string {
	return p.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeAuthCode performs the authorization_code grant.
func (p *OAuthProvider) ExchangeAuthCode(ctx context.Context, code, redirectURI string) (*TokenGrant, error) {
	tok, err := p.config(redirectURI).Exchange(p.context(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return toGrant(tok), nil
}

// RefreshToken performs the refresh_token grant. RefreshToken on the result is
// only set when Google rotated it.
func (p *OAuthProvider) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}
	src := p.config("").TokenSource(p.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	grant := toGrant(tok)
	// oauth2 carries the old refresh token forward when the server omits one.
	if grant.RefreshToken == refreshToken {
		grant.RefreshToken = ""
	}
	return grant, nil
}

func toGrant(tok *oauth2.Token) *TokenGrant {
	grant := &TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
	}
	if grant.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		grant.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	if grant.ExpiresIn <= 0 {
		grant.ExpiresIn = defaultExpiresIn
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		grant.Scope = scope
	}
	return grant
}
