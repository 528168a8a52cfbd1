package enums

import "fmt"

// TableMode is the operator-set mode of a physical table.
type TableMode string

const (
	TableModeNormal       TableMode = "normal"
	TableModeCleaning     TableMode = "cleaning"
	TableModeOutOfService TableMode = "out_of_service"
)

var validTableModes = []TableMode{
	TableModeNormal,
	TableModeCleaning,
	TableModeOutOfService,
}

// String implements fmt.Stringer.
func (m TableMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TableMode.
func (m TableMode) IsValid() bool {
	for _, candidate := range validTableModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTableMode converts raw input into a TableMode.
func ParseTableMode(value string) (TableMode, error) {
	for _, candidate := range validTableModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table mode %q", value)
}
