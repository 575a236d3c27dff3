package accounts

// RolePolicy defines the interface for role-based access control checks
type RolePolicy interface {
	// IsAdmin checks if the role grants admin capability
	IsAdmin() bool

	// IsManager checks if the role grants manager capability
	IsManager() bool

	// IsAtLeast checks if the role is at least the minimum required role
	IsAtLeast(minRole UserRole) bool
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin checks if this role grants admin capability
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// IsManager checks if this role grants manager capability. The ladder is
// monotonic: admins hold every manager capability.
func (r UserRole) IsManager() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleMember:  0,
		RoleManager: 1,
		RoleAdmin:   2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleMember,
		RoleManager,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
