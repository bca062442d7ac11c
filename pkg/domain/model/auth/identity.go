package auth

import (
	"context"
	"strings"

	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// AnonymousUser is the actor name used for unauthenticated reads
const AnonymousUser = "anonymous"

// Identity is the resolved caller of a request
type Identity struct {
	User string
	Role types.Role
}

// Resolve builds an Identity from raw user and role strings. The user is
// trimmed; the role is trimmed, lower-cased and downgraded to member when
// absent or unknown.
func Resolve(user, role string) Identity {
	r := types.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.IsValid() {
		r = types.RoleMember
	}
	return Identity{
		User: strings.TrimSpace(user),
		Role: r,
	}
}

// IsAuthenticated reports whether a user name was supplied
func (i Identity) IsAuthenticated() bool {
	return i.User != ""
}

// Actor returns the user name, or AnonymousUser when unauthenticated
func (i Identity) Actor() string {
	if !i.IsAuthenticated() {
		return AnonymousUser
	}
	return i.User
}

type ctxIdentityKey struct{}

// ContextWithIdentity stores identity in ctx
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, identity)
}

// IdentityFromContext returns the identity stored in ctx. An unauthenticated
// member identity is returned when none is set.
func IdentityFromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(ctxIdentityKey{}).(Identity); ok {
		return identity
	}
	return Identity{Role: types.RoleMember}
}
