// Package auth holds the role hierarchy and bearer token handling.
package auth

import "strings"

// Role is a user's permission tier.
type Role string

const (
	RoleWorker     Role = "worker"
	RoleMaintainer Role = "maintainer"
	RoleAdmin      Role = "admin"
)

var roleLevels = map[Role]int{
	RoleWorker:     0,
	RoleMaintainer: 1,
	RoleAdmin:      2,
}

// ParseRole returns the role named by s and whether it is a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleLevels[r]
	return r, ok
}

// Level ranks the role; unknown roles rank as worker.
func (r Role) Level() int {
	return roleLevels[r]
}

// Allows reports whether r meets the required role.
func (r Role) Allows(required Role) bool {
	return r.Level() >= required.Level()
}
