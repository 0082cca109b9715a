package domain

import (
	"errors"
	"time"
)

// GrantTTL is the fixed validity window of a demo grant.
const GrantTTL = 7 * 24 * time.Hour

// GrantType is the "type" claim carried by every demo grant.
const GrantType = "demo"

var (
	ErrNoCapabilities = errors.New("demo grant requires at least one capability")
	ErrInvalidGrant   = errors.New("invalid demo grant")
)

// Grant is a self-contained, capability-scoped demo credential. Grants are not
// stored and cannot be revoked before ExpiresAt.
type Grant struct {
	ClientID     string
	Capabilities []string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}
