package session

// PlatformRoleAdmin is the global profile role granting platform wide administration
const PlatformRoleAdmin = "admin"

// OrgRole is the role a user holds inside a single organization. It is
// distinct from the global profile role.
type OrgRole string

const (
	// OrgRoleMember can work inside the organization
	OrgRoleMember OrgRole = "member"
	// OrgRoleAdmin can manage the organization resources
	OrgRoleAdmin OrgRole = "admin"
	// OrgRoleOwner owns the organization
	OrgRoleOwner OrgRole = "owner"
)

// IsValid checks if the role is one of the predefined organization roles
func (r OrgRole) IsValid() bool {
	switch r {
	case OrgRoleMember, OrgRoleAdmin, OrgRoleOwner:
		return true
	default:
		return false
	}
}

// CanManage reports whether the role may administer the organization
func (r OrgRole) CanManage() bool {
	switch r {
	case OrgRoleAdmin, OrgRoleOwner:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r OrgRole) IsAtLeast(minRole OrgRole) bool {
	roleHierarchy := map[OrgRole]int{
		OrgRoleMember: 1,
		OrgRoleAdmin:  2,
		OrgRoleOwner:  3,
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

// GetAllOrgRoles returns all organization roles in hierarchical order
func GetAllOrgRoles() []OrgRole {
	return []OrgRole{
		OrgRoleMember,
		OrgRoleAdmin,
		OrgRoleOwner,
	}
}

// ParseOrgRole safely parses a string into an OrgRole
func ParseOrgRole(roleStr string) (OrgRole, bool) {
	role := OrgRole(roleStr)
	return role, role.IsValid()
}
