package types

// Role is the permission level claimed by a caller
type Role string

const (
	RoleMember Role = "member"
	RoleLead   Role = "lead"
	RoleAdmin  Role = "admin"
)

// AllRoles returns all known roles from least to most privileged
func AllRoles() []Role {
	return []Role{RoleMember, RoleLead, RoleAdmin}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleLead, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanClose reports whether the role may move an action to Closed
func (r Role) CanClose() bool {
	return r == RoleLead || r == RoleAdmin
}

// CanDelete reports whether the role may delete actions
func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
