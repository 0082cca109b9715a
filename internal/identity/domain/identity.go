package domain

import (
	"slices"
	"time"
)

// CapabilityAll grants every registered workflow type.
const CapabilityAll = "all"

// AnonymousID identifies callers that presented no credential.
const AnonymousID = "anonymous"

// Kind is the class of caller an Identity was resolved from.
type Kind string

const (
	KindAuthenticated Kind = "authenticated-user"
	KindDemo          Kind = "demo"
	KindAnonymous     Kind = "anonymous"
)

// Capabilities is the set of workflow types an identity may invoke.
type Capabilities []string

// Allows reports whether capability is granted directly or through CapabilityAll.
func (c Capabilities) Allows(capability string) bool {
	return slices.Contains(c, CapabilityAll) || slices.Contains(c, capability)
}

// Unrestricted reports whether the set holds the wildcard.
func (c Capabilities) Unrestricted() bool {
	return slices.Contains(c, CapabilityAll)
}

// Identity is the caller resolved for one request. It is never persisted.
type Identity struct {
	ID   string
	Kind Kind
	// UserID is the authenticated account behind the request, kept when a demo
	// grant overlays the identity. Empty for pure demo or anonymous callers.
	UserID       string
	Capabilities Capabilities
	IssuedAt     time.Time
	ExpiresAt    *time.Time
}

// IsAnonymous reports whether no credential contributed to the identity.
func (i *Identity) IsAnonymous() bool {
	return i == nil || i.Kind == KindAnonymous
}
