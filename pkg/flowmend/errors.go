package flowmend

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/flowmend/pkg/flowmend/classify"
)

// Sentinel errors for mutation calls.
var (
	// ErrNilClient indicates the engine was constructed without a client.
	ErrNilClient = errors.New("nil client")

	// ErrRoundsExhausted indicates the same conflict category recurred
	// after its remediation budget was spent.
	ErrRoundsExhausted = errors.New("remediation rounds exhausted")

	// ErrStopNotConverged indicates a stopped component never reported
	// STOPPED within the stop wait.
	ErrStopNotConverged = errors.New("component did not reach stopped state")
)

// RemediationError wraps a failure that occurred while remediating a
// classified conflict. The original mutation was not retried.
type RemediationError struct {
	// TargetID is the resource the mutation targeted.
	TargetID string
	// Category is the conflict being remediated.
	Category classify.Category
	// Action is the remediation action that failed.
	Action Action
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RemediationError) Error() string {
	return fmt.Sprintf("remediate %s for %s: %s: %v", e.Category, e.TargetID, e.Action, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RemediationError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports a conflict that kept recurring after its
// remediation budget was spent. The last rejection is preserved verbatim.
type ExhaustedError struct {
	// TargetID is the resource the mutation targeted.
	TargetID string
	// Category is the recurring conflict.
	Category classify.Category
	// Rounds is the budget that was spent.
	Rounds int
	// Err is the remote API's last rejection.
	Err error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s recurred for %s after %d remediation round(s): %v",
		e.Category, e.TargetID, e.Rounds, e.Err)
}

// Unwrap returns ErrRoundsExhausted for errors.Is support.
func (e *ExhaustedError) Unwrap() error {
	return ErrRoundsExhausted
}
