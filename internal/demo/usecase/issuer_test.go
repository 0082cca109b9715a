package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	demodomain "nexus-backend/internal/demo/domain"
	"nexus-backend/pkg/signedtoken"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewIssuer("demo-secret")

	clientID := issuer.NewClientID()
	assert.True(t, strings.HasPrefix(clientID, "demo_"))

	token, grant, err := issuer.Issue(clientID, []string{"invoice_ocr", " invoice_ocr", "contracts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice_ocr", "contracts"}, grant.Capabilities)
	assert.Equal(t, demodomain.GrantTTL, grant.ExpiresAt.Sub(grant.IssuedAt))

	verified, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, verified.ClientID)
	assert.Equal(t, grant.Capabilities, verified.Capabilities)
	assert.Equal(t, grant.IssuedAt.Unix(), verified.IssuedAt.Unix())
	assert.Equal(t, grant.ExpiresAt.Unix(), verified.ExpiresAt.Unix())
}

func TestIssuer_RejectsEmptyCapabilities(t *testing.T) {
	issuer := NewIssuer("demo-secret")

	_, _, err := issuer.Issue("demo_1", []string{" ", ""})
	assert.ErrorIs(t, err, demodomain.ErrNoCapabilities)
}

func TestIssuer_VerifyUsesIssuerClock(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	issuer := NewIssuer("demo-secret")
	issuer.now = func() time.Time { return issuedAt }

	token, _, err := issuer.Issue("demo_1", []string{"invoice_ocr"})
	require.NoError(t, err)

	grant, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "demo_1", grant.ClientID)

	issuer.now = func() time.Time { return issuedAt.Add(demodomain.GrantTTL + time.Hour) }
	_, err = issuer.Verify(token)
	assert.True(t, errors.Is(err, demodomain.ErrInvalidGrant), "got %v", err)
}

func TestIssuer_VerifyFailures(t *testing.T) {
	issuer := NewIssuer("demo-secret")

	expired := NewIssuer("demo-secret")
	expired.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expiredToken, _, err := expired.Issue("demo_1", []string{"all"})
	require.NoError(t, err)

	foreignToken, _, err := NewIssuer("other-secret").Issue("demo_1", []string{"all"})
	require.NoError(t, err)

	// A validly signed token of another kind, e.g. OAuth state.
	stateToken, err := signedtoken.Sign(signedtoken.Claims{"uid": "user-1"}, []byte("demo-secret"), time.Now(), time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":       expiredToken,
		"wrong secret":  foreignToken,
		"not a grant":   stateToken,
		"garbage token": "garbage",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			assert.True(t, errors.Is(err, demodomain.ErrInvalidGrant), "got %v", err)
		})
	}
}
