package merge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/floorops/floorops-backend/pkg/enums"
)

func TestClassifyDecisionTable(t *testing.T) {
	sharedReservation := uuid.New()
	otherReservation := uuid.New()

	cases := []struct {
		name         string
		input        ClassifyInput
		wantKind     VerdictKind
		wantStrategy enums.MergeScenario
	}{
		{
			name:         "free plus free combines",
			input:        ClassifyInput{SourceState: enums.TableStateFree, TargetState: enums.TableStateFree},
			wantKind:     VerdictAllowed,
			wantStrategy: enums.MergeScenarioCombineFree,
		},
		{
			name:         "free joins occupied",
			input:        ClassifyInput{SourceState: enums.TableStateFree, TargetState: enums.TableStateOccupied},
			wantKind:     VerdictAllowed,
			wantStrategy: enums.MergeScenarioJoinSession,
		},
		{
			name:         "occupied absorbs free symmetrically",
			input:        ClassifyInput{SourceState: enums.TableStateOccupied, TargetState: enums.TableStateFree},
			wantKind:     VerdictAllowed,
			wantStrategy: enums.MergeScenarioJoinSession,
		},
		{
			name:         "free joins reservation",
			input:        ClassifyInput{SourceState: enums.TableStateFree, TargetState: enums.TableStateReserved, TargetReservationID: &sharedReservation},
			wantKind:     VerdictAllowed,
			wantStrategy: enums.MergeScenarioJoinReservation,
		},
		{
			name:         "occupied plus occupied needs confirmation",
			input:        ClassifyInput{SourceState: enums.TableStateOccupied, TargetState: enums.TableStateOccupied},
			wantKind:     VerdictAllowedWithConfirmation,
			wantStrategy: enums.MergeScenarioCombineSessions,
		},
		{
			name:         "same reservation groups tables",
			input:        ClassifyInput{SourceState: enums.TableStateReserved, TargetState: enums.TableStateReserved, SourceReservationID: &sharedReservation, TargetReservationID: &sharedReservation},
			wantKind:     VerdictAllowed,
			wantStrategy: enums.MergeScenarioGroupReservation,
		},
		{
			name:     "different reservations blocked",
			input:    ClassifyInput{SourceState: enums.TableStateReserved, TargetState: enums.TableStateReserved, SourceReservationID: &sharedReservation, TargetReservationID: &otherReservation},
			wantKind: VerdictBlocked,
		},
		{
			name:     "reserved plus occupied blocked",
			input:    ClassifyInput{SourceState: enums.TableStateReserved, TargetState: enums.TableStateOccupied, SourceReservationID: &sharedReservation},
			wantKind: VerdictBlocked,
		},
		{
			name:     "occupied plus reserved blocked",
			input:    ClassifyInput{SourceState: enums.TableStateOccupied, TargetState: enums.TableStateReserved, TargetReservationID: &sharedReservation},
			wantKind: VerdictBlocked,
		},
		{
			name:     "blocked source blocks",
			input:    ClassifyInput{SourceState: enums.TableStateBlocked, TargetState: enums.TableStateFree},
			wantKind: VerdictBlocked,
		},
		{
			name:     "blocked target blocks",
			input:    ClassifyInput{SourceState: enums.TableStateOccupied, TargetState: enums.TableStateBlocked},
			wantKind: VerdictBlocked,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Classify(tc.input)
			assert.Equal(t, tc.wantKind, verdict.Kind)
			assert.Equal(t, tc.wantStrategy, verdict.Strategy)
			if tc.wantKind == VerdictBlocked {
				assert.NotEmpty(t, verdict.Reason)
				assert.False(t, verdict.Allowed())
			} else {
				assert.Empty(t, verdict.Reason)
				assert.True(t, verdict.Allowed())
			}
		})
	}
}

func TestClassifyConfirmationCarriesPhrase(t *testing.T) {
	verdict := Classify(ClassifyInput{
		SourceState: enums.TableStateOccupied,
		TargetState: enums.TableStateOccupied,
	})
	assert.Equal(t, ConfirmationPhrase, verdict.RequiredPhrase)
	assert.NotEmpty(t, verdict.WarningText)
}

func TestClassifyIsPure(t *testing.T) {
	input := ClassifyInput{SourceState: enums.TableStateFree, TargetState: enums.TableStateOccupied}
	assert.Equal(t, Classify(input), Classify(input))
}

func TestClassifyMissingReservationIDsBlock(t *testing.T) {
	// Reserved tables with no resolvable reservation id must not group.
	verdict := Classify(ClassifyInput{
		SourceState: enums.TableStateReserved,
		TargetState: enums.TableStateReserved,
	})
	assert.Equal(t, VerdictBlocked, verdict.Kind)
}
