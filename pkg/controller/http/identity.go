package http

import (
	"net/http"

	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
)

// Identity headers
const (
	HeaderUser = "X-User"
	HeaderRole = "X-Role"
)

// IdentityProvider resolves the caller of a request
type IdentityProvider interface {
	Identify(r *http.Request) auth.Identity
}

// HeaderIdentityProvider trusts the X-User and X-Role headers set by the
// proxy in front of the service
type HeaderIdentityProvider struct{}

func (HeaderIdentityProvider) Identify(r *http.Request) auth.Identity {
	return auth.Resolve(r.Header.Get(HeaderUser), r.Header.Get(HeaderRole))
}
