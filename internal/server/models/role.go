package models

// Role names known to the service.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// RoleSet is the configured set of roles that make a user privileged.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from names; duplicates are ignored.
func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// DefaultPrivilegedRoles returns {admin, staff}.
func DefaultPrivilegedRoles() RoleSet {
	return NewRoleSet(RoleAdmin, RoleStaff)
}

// IsPrivileged reports whether any of the user's roles is in the set.
func (s RoleSet) IsPrivileged(u *User) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if _, ok := s[r]; ok {
			return true
		}
	}
	return false
}

// NormalizeRoles drops empty names and duplicates, keeping first-seen order.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
