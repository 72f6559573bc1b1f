// Package state is the single source of truth for allocation status
// transitions. Every write path must call ValidateTransition before persisting
// a new status; no other component may decide legality.
package state

import (
	"fmt"

	"lifebridge/internal/domain"
	dErrors "lifebridge/pkg/domainerrors"
)

// transitions maps each status to its allowed successors. COMPLETED and FAILED
// are terminal.
var transitions = map[domain.AllocationStatus][]domain.AllocationStatus{
	domain.AllocationPendingConfirmation: {domain.AllocationMatched},
	domain.AllocationMatched:             {domain.AllocationCompleted, domain.AllocationFailed},
	domain.AllocationCompleted:           {},
	domain.AllocationFailed:              {},
}

// ValidateTransition returns an invalid_transition error unless next is an
// allowed successor of current. Pure; no side effects.
func ValidateTransition(current, next domain.AllocationStatus) error {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvalidTransition,
		fmt.Sprintf("invalid allocation transition: %s -> %s", current, next))
}

// Terminal reports whether a status has no successors.
func Terminal(s domain.AllocationStatus) bool {
	return len(transitions[s]) == 0
}
