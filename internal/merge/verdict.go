package merge

import "github.com/floorops/floorops-backend/pkg/enums"

// ConfirmationPhrase is the exact text an operator must type to authorize a
// merge that combines live bills. Matching is case-sensitive.
const ConfirmationPhrase = "MERGE ACTIVE BILLS"

// VerdictKind discriminates the three classification outcomes.
type VerdictKind string

const (
	VerdictAllowed                 VerdictKind = "allowed"
	VerdictAllowedWithConfirmation VerdictKind = "allowed_with_confirmation"
	VerdictBlocked                 VerdictKind = "blocked"
)

// Verdict is the classifier's answer for a table pair. Strategy is set for
// the two allowed kinds; Reason only for blocked; WarningText and
// RequiredPhrase only when confirmation is required.
type Verdict struct {
	Kind           VerdictKind         `json:"kind"`
	Strategy       enums.MergeScenario `json:"strategy,omitempty"`
	WarningText    string              `json:"warning_text,omitempty"`
	RequiredPhrase string              `json:"required_phrase,omitempty"`
	Reason         string              `json:"reason,omitempty"`
}

// Allowed reports whether the executor may run, with or without a
// confirmation step.
func (v Verdict) Allowed() bool {
	return v.Kind == VerdictAllowed || v.Kind == VerdictAllowedWithConfirmation
}

// Equal reports whether two verdicts authorize the same action. Used by the
// executor to detect state drift between classification and commit: a
// different kind or a different strategy means the operator approved
// something that no longer holds.
func (v Verdict) Equal(other Verdict) bool {
	return v.Kind == other.Kind && v.Strategy == other.Strategy
}
