package usecase

import (
	"fmt"
	"strings"
	"time"

	demodomain "nexus-backend/internal/demo/domain"
	"nexus-backend/pkg/signedtoken"

	"github.com/google/uuid"
)

// Issuer mints and verifies demo grants.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// NewClientID returns a fresh demo client id: millisecond timestamp plus a random
// suffix. Collisions are tolerated since grants are never looked up by id.
func (i *Issuer) NewClientID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("demo_%d_%s", i.now().UnixMilli(), suffix)
}

// Issue signs a grant for clientID carrying capabilities.
func (i *Issuer) Issue(clientID string, capabilities []string) (string, *demodomain.Grant, error) {
	caps := normalize(capabilities)
	if len(caps) == 0 {
		return "", nil, demodomain.ErrNoCapabilities
	}

	issuedAt := i.now()
	token, err := signedtoken.Sign(signedtoken.Claims{
		"id":        clientID,
		"type":      demodomain.GrantType,
		"workflows": caps,
		"createdAt": issuedAt.Unix(),
	}, i.secret, issuedAt, demodomain.GrantTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign demo grant: %w", err)
	}

	return token, &demodomain.Grant{
		ClientID:     clientID,
		Capabilities: caps,
		IssuedAt:     time.Unix(issuedAt.Unix(), 0),
		ExpiresAt:    time.Unix(issuedAt.Add(demodomain.GrantTTL).Unix(), 0),
	}, nil
}

// Verify checks signature, expiry and the demo claim shape.
func (i *Issuer) Verify(token string) (*demodomain.Grant, error) {
	claims, err := signedtoken.Verify(token, i.secret, signedtoken.At(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", demodomain.ErrInvalidGrant, err)
	}
	if signedtoken.String(claims, "type") != demodomain.GrantType {
		return nil, fmt.Errorf("%w: not a demo grant", demodomain.ErrInvalidGrant)
	}

	grant := &demodomain.Grant{
		ClientID:     signedtoken.String(claims, "id"),
		Capabilities: normalize(signedtoken.Strings(claims, "workflows")),
	}
	if grant.ClientID == "" || len(grant.Capabilities) == 0 {
		return nil, fmt.Errorf("%w: missing claims", demodomain.ErrInvalidGrant)
	}

	var ok bool
	if grant.IssuedAt, ok = signedtoken.Time(claims, "createdAt"); !ok {
		grant.IssuedAt, _ = signedtoken.Time(claims, "iat")
	}
	grant.ExpiresAt, _ = signedtoken.Time(claims, "exp")
	return grant, nil
}

func normalize(capabilities []string) []string {
	out := make([]string, 0, len(capabilities))
	seen := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
