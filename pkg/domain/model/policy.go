package model

import "slices"

// Policy holds the deployment-specific workflow rules
type Policy struct {
	// EnforceOwnerAllowList rejects owners outside Owners. An empty Owners list disables the check.
	EnforceOwnerAllowList bool
	// EnforceComponentAllowList rejects components outside Components. An empty Components list disables the check.
	EnforceComponentAllowList bool
	// CloseRequiresResolved permits Closed only from Resolved
	CloseRequiresResolved bool
	// AllowDelete enables the admin-only delete operation
	AllowDelete bool

	Owners     []string
	Components []string
}

// DefaultPolicy returns the strict policy
func DefaultPolicy() Policy {
	return Policy{
		EnforceOwnerAllowList:     true,
		EnforceComponentAllowList: true,
		CloseRequiresResolved:     true,
		AllowDelete:               true,
	}
}

// OwnerAllowed reports whether owner passes the owner allow-list
func (p Policy) OwnerAllowed(owner string) bool {
	if !p.EnforceOwnerAllowList || len(p.Owners) == 0 {
		return true
	}
	return slices.Contains(p.Owners, owner)
}

// ComponentAllowed reports whether component passes the component allow-list
func (p Policy) ComponentAllowed(component string) bool {
	if !p.EnforceComponentAllowList || len(p.Components) == 0 {
		return true
	}
	return slices.Contains(p.Components, component)
}
