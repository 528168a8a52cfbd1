package enums

import "fmt"

// MergeScenario names the data-migration strategy a merge applies. The
// scenario is fixed at classification time and recorded on the ledger entry.
type MergeScenario string

const (
	// MergeScenarioCombineFree links two free tables into one seating unit.
	MergeScenarioCombineFree MergeScenario = "combine_free"
	// MergeScenarioJoinSession expands an occupied table's session with a free table.
	MergeScenarioJoinSession MergeScenario = "join_session"
	// MergeScenarioJoinReservation expands a reservation's table set with a free table.
	MergeScenarioJoinReservation MergeScenario = "join_reservation"
	// MergeScenarioCombineSessions folds one active session's bill into another.
	MergeScenarioCombineSessions MergeScenario = "combine_sessions"
	// MergeScenarioGroupReservation groups two tables held by the same reservation.
	MergeScenarioGroupReservation MergeScenario = "group_reservation"
)

var validMergeScenarios = []MergeScenario{
	MergeScenarioCombineFree,
	MergeScenarioJoinSession,
	MergeScenarioJoinReservation,
	MergeScenarioCombineSessions,
	MergeScenarioGroupReservation,
}

// String implements fmt.Stringer.
func (m MergeScenario) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MergeScenario.
func (m MergeScenario) IsValid() bool {
	for _, candidate := range validMergeScenarios {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMergeScenario converts raw input into a MergeScenario.
func ParseMergeScenario(value string) (MergeScenario, error) {
	for _, candidate := range validMergeScenarios {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merge scenario %q", value)
}
