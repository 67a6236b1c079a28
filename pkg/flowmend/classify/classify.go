// Package classify maps rejected remote mutations to conflict categories.
//
// The remote flow API rejects mutations that violate its preconditions
// (deleting a running processor, deleting a connection with queued data,
// supplying a stale revision). Rejections arrive as an HTTP status plus a
// human-readable error body. Classify inspects both and assigns a Category
// that the remediation controller dispatches on.
//
// Classification is pure and deterministic: no I/O, no retries, no state.
package classify

import "strings"

// Category identifies why the remote API rejected a mutation.
type Category int

const (
	// Unclassified is a rejection no known pattern matched.
	// Unclassified conflicts are surfaced immediately, never remediated.
	Unclassified Category = iota

	// Running means the target component (or a component inside the target
	// group) is currently running and must be stopped first.
	Running

	// DependentEdges means connections still reference the target as their
	// source or destination.
	DependentEdges

	// NonEmptyQueue means a connection still holds queued flowfiles and must
	// be drained before deletion.
	NonEmptyQueue

	// Revision means the supplied optimistic-concurrency revision is stale.
	Revision

	// NotFound means the target no longer exists. Never remediated.
	NotFound

	// PermissionDenied means the caller lacks access to the target.
	// Never remediated.
	PermissionDenied
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Running:
		return "running_conflict"
	case DependentEdges:
		return "dependent_edges_conflict"
	case NonEmptyQueue:
		return "non_empty_queue_conflict"
	case Revision:
		return "revision_conflict"
	case NotFound:
		return "not_found"
	case PermissionDenied:
		return "permission_denied"
	default:
		return "unclassified"
	}
}

// Remediable reports whether the category has a remediation strategy.
func (c Category) Remediable() bool {
	switch c {
	case Running, DependentEdges, NonEmptyQueue, Revision:
		return true
	default:
		return false
	}
}

// Rounds returns the default remediate-then-retry budget for the category.
// Revision conflicts are cheap and common under concurrent access, so they
// get a larger budget. Non-remediable categories get zero.
func (c Category) Rounds() int {
	switch c {
	case Revision:
		return 3
	case Running, DependentEdges, NonEmptyQueue:
		return 1
	default:
		return 0
	}
}

// Substring patterns matched (case-insensitively) against 409 bodies.
// These track the wording the remote API actually emits.
var (
	runningPatterns = []string{
		"is currently running",
		"because it is running",
		"running state",
	}
	dependentEdgePatterns = []string{
		"active connections",
		"is the source of",
		"is the destination of",
		"incoming connections",
	}
	queuePatterns = []string{
		"active flowfile queue",
		"queued flowfiles",
		"has data queued",
	}
	revisionPatterns = []string{
		"revision mismatch",
		"not the most up-to-date revision",
		"conflict",
	}
)

// Classify maps a failed mutation's HTTP status and error body to a Category.
//
// All conflict categories arrive as 409; the body text disambiguates them.
// The revision patterns are checked last because the remote API's generic
// "Conflict" wording would otherwise shadow the more specific categories.
func Classify(status int, body string) Category {
	switch status {
	case 404:
		return NotFound
	case 403:
		return PermissionDenied
	case 409:
		lower := strings.ToLower(body)
		switch {
		case matchesAny(lower, runningPatterns):
			return Running
		case matchesAny(lower, dependentEdgePatterns):
			return DependentEdges
		case matchesAny(lower, queuePatterns):
			return NonEmptyQueue
		case matchesAny(lower, revisionPatterns):
			return Revision
		default:
			return Unclassified
		}
	default:
		return Unclassified
	}
}

func matchesAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
