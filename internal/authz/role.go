package authz

import "strings"

// Role is the single role held by a principal.
type Role string

// Supported roles, lowest rank first.
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// roleOrder lists every role from lowest to highest rank.
var roleOrder = []Role{RoleUser, RoleAdmin, RoleSuperadmin}

// Roles returns all roles ordered from lowest to highest rank.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// ParseRole normalises a raw role string. The second return value is false
// when the value does not name a known role.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	return r, r.Valid()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range roleOrder {
		if r == known {
			return true
		}
	}
	return false
}

// Rank returns the position of r in the hierarchy. Unknown or empty roles
// rank as RoleUser.
func (r Role) Rank() int {
	for i, known := range roleOrder {
		if r == known {
			return i
		}
	}
	return 0
}

// Normalize maps unknown or empty roles to RoleUser.
func (r Role) Normalize() Role {
	if !r.Valid() {
		return RoleUser
	}
	return r
}

// InAdminGroup reports whether r is admin or superadmin.
func (r Role) InAdminGroup() bool {
	r = r.Normalize()
	return r == RoleAdmin || r == RoleSuperadmin
}

func (r Role) String() string {
	return string(r)
}

// HighestRole resolves a multi-valued role list to the single highest role.
// Unknown entries are ignored; an empty result falls back to RoleUser.
func HighestRole(raw []string) Role {
	best := RoleUser
	for _, v := range raw {
		r, ok := ParseRole(v)
		if !ok {
			continue
		}
		if r.Rank() > best.Rank() {
			best = r
		}
	}
	return best
}

// ManageableRoles returns the roles strictly below r.
func ManageableRoles(r Role) []Role {
	rank := r.Normalize().Rank()
	out := make([]Role, 0, rank)
	for _, candidate := range roleOrder {
		if candidate.Rank() < rank {
			out = append(out, candidate)
		}
	}
	return out
}

// CanManage reports whether a holder of actor may act on a holder of target.
func CanManage(actor, target Role) bool {
	return target.Normalize().Rank() < actor.Normalize().Rank()
}
