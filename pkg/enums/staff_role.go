package enums

import "fmt"

// StaffRole represents a venue-level permissions role.
type StaffRole string

const (
	StaffRoleManager StaffRole = "manager"
	StaffRoleWaiter  StaffRole = "waiter"
	StaffRoleCleaner StaffRole = "cleaner"
)

var validStaffRoles = []StaffRole{
	StaffRoleManager,
	StaffRoleWaiter,
	StaffRoleCleaner,
}

// CanMergeTables reports whether the role may confirm and execute table merges.
func (s StaffRole) CanMergeTables() bool {
	return s == StaffRoleManager
}

// String implements fmt.Stringer.
func (s StaffRole) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StaffRole.
func (s StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
