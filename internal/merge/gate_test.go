package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

func TestConfirmAllowedPassesWithoutInput(t *testing.T) {
	verdict := Verdict{Kind: VerdictAllowed, Strategy: enums.MergeScenarioCombineFree}
	assert.NoError(t, Confirm(verdict, ""))
}

func TestConfirmExactPhrase(t *testing.T) {
	verdict := Classify(ClassifyInput{
		SourceState: enums.TableStateOccupied,
		TargetState: enums.TableStateOccupied,
	})

	assert.NoError(t, Confirm(verdict, ConfirmationPhrase))
}

func TestConfirmRejectsMismatch(t *testing.T) {
	verdict := Classify(ClassifyInput{
		SourceState: enums.TableStateOccupied,
		TargetState: enums.TableStateOccupied,
	})

	for _, supplied := range []string{"", "merge active bills", "MERGE ACTIVE BILLS ", "MERGE BILLS"} {
		err := Confirm(verdict, supplied)
		require.Error(t, err, "supplied %q", supplied)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeConfirmationRejected, typed.Code())

		// The original warning is re-surfaced so the operator sees what
		// they are confirming.
		details, ok := typed.Details().(map[string]string)
		require.True(t, ok)
		assert.Equal(t, verdict.WarningText, details["warning"])
		assert.Equal(t, ConfirmationPhrase, details["required_phrase"])
	}
}

func TestConfirmBlockedNeverApproves(t *testing.T) {
	verdict := Verdict{Kind: VerdictBlocked, Reason: "table is blocked for cleaning or out of service"}
	err := Confirm(verdict, ConfirmationPhrase)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
