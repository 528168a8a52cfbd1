package enums

import "fmt"

// TableState is the derived availability of a table. It is never persisted;
// the floor service computes it from session, order and reservation facts.
type TableState string

const (
	TableStateFree     TableState = "free"
	TableStateOccupied TableState = "occupied"
	TableStateReserved TableState = "reserved"
	TableStateBlocked  TableState = "blocked"
)

var validTableStates = []TableState{
	TableStateFree,
	TableStateOccupied,
	TableStateReserved,
	TableStateBlocked,
}

// String implements fmt.Stringer.
func (s TableState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TableState.
func (s TableState) IsValid() bool {
	for _, candidate := range validTableStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTableState converts raw input into a TableState.
func ParseTableState(value string) (TableState, error) {
	for _, candidate := range validTableStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table state %q", value)
}
