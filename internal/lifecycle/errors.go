package lifecycle

import (
	"fmt"
	"strings"
)

// GuardError reports a transition requested from a state that does not
// permit it. The phase axis is monotonic, so these are never retried
// automatically; the operator has to act first.
type GuardError struct {
	MissionID string
	Reason    string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("mission %s: %s", e.MissionID, e.Reason)
}

// ValidationError carries the full accumulated error list from a rejected
// plan document. Nothing was mutated; the caller can surface every problem
// at once.
type ValidationError struct {
	MissionID string
	Errors    []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mission %s: plan rejected with %d errors: %s",
		e.MissionID, len(e.Errors), strings.Join(e.Errors, "; "))
}
