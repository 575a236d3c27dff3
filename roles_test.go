package accounts_test

import (
	"testing"

	"github.com/benjiyou/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role      accounts.UserRole
		isAdmin   bool
		isManager bool
	}{
		{accounts.RoleAdmin, true, true},
		{accounts.RoleManager, false, true},
		{accounts.RoleMember, false, false},
		{"intruder", false, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.isAdmin, tc.role.IsAdmin())
			assert.Equal(t, tc.isManager, tc.role.IsManager())
		})
	}
}

func TestIsAtLeast(t *testing.T) {
	assert.True(t, accounts.RoleAdmin.IsAtLeast(accounts.RoleMember))
	assert.True(t, accounts.RoleAdmin.IsAtLeast(accounts.RoleAdmin))
	assert.True(t, accounts.RoleManager.IsAtLeast(accounts.RoleMember))
	assert.False(t, accounts.RoleMember.IsAtLeast(accounts.RoleManager))
	assert.False(t, accounts.UserRole("intruder").IsAtLeast(accounts.RoleMember))
	assert.False(t, accounts.RoleAdmin.IsAtLeast("intruder"))
}

func TestRoleIsValid(t *testing.T) {
	for _, role := range accounts.GetAllRoles() {
		assert.True(t, role.IsValid())
	}

	assert.False(t, accounts.UserRole("superuser").IsValid())
	assert.False(t, accounts.UserRole("").IsValid())
}

func TestParseRole(t *testing.T) {
	role, ok := accounts.ParseRole("manager")
	assert.True(t, ok)
	assert.Equal(t, accounts.RoleManager, role)

	_, ok = accounts.ParseRole("superuser")
	assert.False(t, ok)
}

func TestGetAllRolesOrderedByPrivilege(t *testing.T) {
	roles := accounts.GetAllRoles()
	assert.Equal(t, []accounts.UserRole{
		accounts.RoleMember,
		accounts.RoleManager,
		accounts.RoleAdmin,
	}, roles)

	for i := 1; i < len(roles); i++ {
		assert.True(t, roles[i].IsAtLeast(roles[i-1]))
	}
}
