package domain

import (
	"strings"

	dErrors "hrcore/pkg/domain-errors"
)

// Role is a position in the organization's total order of privilege.
// Invariant: minimum-role checks compare ranks, never role names.
//
// Usage: construct via ParseRole at trust boundaries; direct casting bypasses
// validation and yields rank 0 for unknown values.
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleManager    Role = "manager"
	RoleHRAdmin    Role = "hr_admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleRanks is the single source of truth for the role order.
var roleRanks = map[Role]int{
	RoleEmployee:   1,
	RoleManager:    2,
	RoleHRAdmin:    3,
	RoleSuperAdmin: 4,
}

// TopRole is the role with the highest rank.
const TopRole = RoleSuperAdmin

// ParseRole constructs a Role from external input. Matching is case-insensitive.
//
// Errors: returns CodeValidation when the value is empty or not a known role.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

// Roles returns every known role in ascending rank order.
func Roles() []Role {
	return []Role{RoleEmployee, RoleManager, RoleHRAdmin, RoleSuperAdmin}
}

// Rank returns the integer position of r; unknown roles rank 0, below every real role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && r.Rank() >= min.Rank()
}

// IsTop reports whether r holds the highest rank.
func (r Role) IsTop() bool {
	return r == TopRole
}

func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}
