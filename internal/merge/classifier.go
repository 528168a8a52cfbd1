package merge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/floorops/floorops-backend/pkg/enums"
)

// ClassifyInput carries the derived facts the decision table runs on. The
// reservation ids matter only for the reserved+reserved row.
type ClassifyInput struct {
	SourceState         enums.TableState
	TargetState         enums.TableState
	SourceReservationID *uuid.UUID
	TargetReservationID *uuid.UUID
}

// Classify maps a pair of derived table states onto a merge verdict. It is
// a total pure function: every state pair lands on exactly one row of the
// decision table, and calling it has no side effects.
func Classify(input ClassifyInput) Verdict {
	source, target := input.SourceState, input.TargetState

	// An operator-blocked table ends classification before any pairing
	// logic runs.
	if source == enums.TableStateBlocked || target == enums.TableStateBlocked {
		return Verdict{
			Kind:   VerdictBlocked,
			Reason: "table is blocked for cleaning or out of service",
		}
	}

	switch {
	case source == enums.TableStateFree && target == enums.TableStateFree:
		return Verdict{Kind: VerdictAllowed, Strategy: enums.MergeScenarioCombineFree}

	case pairIs(source, target, enums.TableStateFree, enums.TableStateOccupied):
		return Verdict{Kind: VerdictAllowed, Strategy: enums.MergeScenarioJoinSession}

	case pairIs(source, target, enums.TableStateFree, enums.TableStateReserved):
		return Verdict{Kind: VerdictAllowed, Strategy: enums.MergeScenarioJoinReservation}

	case source == enums.TableStateOccupied && target == enums.TableStateOccupied:
		return Verdict{
			Kind:           VerdictAllowedWithConfirmation,
			Strategy:       enums.MergeScenarioCombineSessions,
			WarningText:    "Both tables have active bills. Merging moves every order onto one bill and closes the other session. This cannot be undone.",
			RequiredPhrase: ConfirmationPhrase,
		}

	case source == enums.TableStateReserved && target == enums.TableStateReserved:
		if sameReservation(input.SourceReservationID, input.TargetReservationID) {
			return Verdict{Kind: VerdictAllowed, Strategy: enums.MergeScenarioGroupReservation}
		}
		return Verdict{
			Kind:   VerdictBlocked,
			Reason: "tables are held by different reservations",
		}

	case pairIs(source, target, enums.TableStateReserved, enums.TableStateOccupied):
		return Verdict{
			Kind:   VerdictBlocked,
			Reason: "a reserved table cannot join another party's bill",
		}

	default:
		// Unreachable with the four known states; kept so an unknown
		// state fails closed instead of merging.
		return Verdict{
			Kind:   VerdictBlocked,
			Reason: fmt.Sprintf("unsupported state pair %s/%s", source, target),
		}
	}
}

// pairIs reports whether {source, target} equals {a, b} in either order.
func pairIs(source, target, a, b enums.TableState) bool {
	return (source == a && target == b) || (source == b && target == a)
}

func sameReservation(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}
