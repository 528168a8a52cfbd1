package merge

import (
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

// Confirm checks the operator-supplied text against the verdict's required
// phrase. Plain Allowed verdicts pass without input. The match is exact and
// case-sensitive; a mismatch surfaces the original warning so the operator
// sees what they are confirming.
func Confirm(verdict Verdict, supplied string) error {
	switch verdict.Kind {
	case VerdictAllowed:
		return nil
	case VerdictAllowedWithConfirmation:
		if supplied == verdict.RequiredPhrase {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeConfirmationRejected, "confirmation phrase does not match").
			WithDetails(map[string]string{
				"warning":         verdict.WarningText,
				"required_phrase": verdict.RequiredPhrase,
			})
	default:
		// Blocked verdicts never reach the gate; classification already
		// stopped the merge.
		return pkgerrors.New(pkgerrors.CodeValidation, "merge is not allowed")
	}
}
