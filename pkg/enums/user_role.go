package enums

import "fmt"

// UserRole represents the access role carried in every access token.
type UserRole string

const (
	UserRoleAdmin            UserRole = "admin"
	UserRoleBaseCommander    UserRole = "base_commander"
	UserRoleLogisticsOfficer UserRole = "logistics_officer"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleBaseCommander,
	UserRoleLogisticsOfficer,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsBaseScoped reports whether the role is confined to its home base.
func (r UserRole) IsBaseScoped() bool {
	return r == UserRoleBaseCommander || r == UserRoleLogisticsOfficer
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
