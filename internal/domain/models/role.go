// internal/domain/models/role.go
package models

import "strings"

// Role is the capability level a user holds inside one workspace.
// Roles belong to a membership, not to a user: the same user may be an
// Admin in one workspace and a Viewer in another.
type Role string

// Canonical role identifiers. These are the values stored in
// workspaces.members[].role.
const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
	RoleViewer Role = "Viewer"

	// RoleNone means the caller has no membership (or the workspace does
	// not exist). It is never stored and is distinct from RoleViewer.
	RoleNone Role = ""
)

// Roles is the closed set of assignable roles, most capable first.
var Roles = []Role{RoleAdmin, RoleMember, RoleViewer}

// ParseRole maps user input onto a canonical Role. Matching ignores case and
// surrounding whitespace. ok is false for anything outside Roles, including
// the empty string.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return RoleNone, false
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
