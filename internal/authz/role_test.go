package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRankOrdering(t *testing.T) {
	assert.Less(t, RoleUser.Rank(), RoleAdmin.Rank())
	assert.Less(t, RoleAdmin.Rank(), RoleSuperadmin.Rank())
	assert.Equal(t, RoleUser.Rank(), Role("").Rank())
	assert.Equal(t, RoleUser.Rank(), Role("owner").Rank())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("  SuperAdmin ")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperadmin, r)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want Role
	}{
		{"empty defaults to user", nil, RoleUser},
		{"single", []string{"admin"}, RoleAdmin},
		{"highest wins", []string{"user", "superadmin", "admin"}, RoleSuperadmin},
		{"unknown ignored", []string{"root", "admin"}, RoleAdmin},
		{"only unknown", []string{"root"}, RoleUser},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HighestRole(tc.in))
		})
	}
}

func TestManageableRoles(t *testing.T) {
	assert.Empty(t, ManageableRoles(RoleUser))
	assert.Equal(t, []Role{RoleUser}, ManageableRoles(RoleAdmin))
	assert.Equal(t, []Role{RoleUser, RoleAdmin}, ManageableRoles(RoleSuperadmin))
	assert.Empty(t, ManageableRoles(Role("bogus")))
}

func TestAdminGroupMonotonic(t *testing.T) {
	// Everything ranked at or above admin is in the admin group.
	for _, r := range Roles() {
		assert.Equal(t, r.Rank() >= RoleAdmin.Rank(), r.InAdminGroup(), r.String())
	}
}

func TestDomainActions(t *testing.T) {
	assert.True(t, DomainUser.Allows(ActionSetAdminPrivilege))
	assert.True(t, DomainUser.Allows(ActionRevokeAdminPrivilege))
	assert.False(t, DomainCourse.Allows(ActionSetAdminPrivilege))
	assert.True(t, DomainLesson.Allows(ActionDelete))
	assert.False(t, Domain("invoice").Allows(ActionGet))
}
