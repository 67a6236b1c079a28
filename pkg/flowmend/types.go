package flowmend

import (
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend/classify"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
)

// MutationStatus is the terminal outcome of one Mutate call.
type MutationStatus string

const (
	// StatusSucceeded means the mutation was applied. Check the
	// remediation log to see whether obstacles were cleared first.
	StatusSucceeded MutationStatus = "succeeded"

	// StatusFailed means the mutation was rejected and no remediation
	// applied (not remediable, or the error was not a classified conflict).
	StatusFailed MutationStatus = "failed"

	// StatusFailedAfterRemediation means remediation ran but the conflict
	// recurred beyond its round budget.
	StatusFailedAfterRemediation MutationStatus = "failed_after_remediation"

	// StatusRemediationFailed means a remediation action itself failed,
	// so the mutation was not retried.
	StatusRemediationFailed MutationStatus = "remediation_failed"
)

// Action is one remediation step the engine can take.
type Action string

const (
	ActionStopComponent    Action = "stop-component"
	ActionDeleteConnection Action = "delete-connection"
	ActionDrainQueue       Action = "drain-queue"
	ActionRefreshRevision  Action = "refresh-revision"
)

// StopScope selects what a running-conflict remediation stops.
type StopScope string

const (
	// StopComponent stops only the conflicting component. Default.
	StopComponent StopScope = "component"

	// StopGroup stops the target's whole parent group. Broader blast
	// radius, but clears conflicts from co-running neighbors too.
	StopGroup StopScope = "group"
)

// ActionRecord is one entry in the remediation log.
type ActionRecord struct {
	// Action is the remediation step taken.
	Action Action `json:"action"`

	// TargetID is the resource the action touched. For delete-connection
	// and drain-queue this is the connection, not the mutation target.
	TargetID string `json:"target_id"`

	// Category is the conflict that triggered the action.
	Category classify.Category `json:"-"`

	// CategoryName is the category in wire form.
	CategoryName string `json:"category"`

	// Outcome is "ok" or the action's error text.
	Outcome string `json:"outcome"`

	Timestamp time.Time `json:"timestamp"`
}

// RemediationAttempt is the auditable log of everything one Mutate call
// changed beyond the requested mutation itself.
type RemediationAttempt struct {
	// ID correlates log entries, events, and spans for one call.
	ID string `json:"id"`

	// TargetID is the resource the original mutation targeted.
	TargetID string `json:"target_id"`

	// Actions lists remediation steps in execution order. Actions taken
	// while clearing nested obstacles (draining a queue so a dependent
	// connection can be deleted) appear inline, before the step they
	// unblocked.
	Actions []ActionRecord `json:"actions"`
}

// MutationResult is the outcome of one Mutate call.
type MutationResult struct {
	Status MutationStatus `json:"status"`

	// Node is the post-mutation resource state. Unset for deletes and
	// failed calls.
	Node nifi.ResourceNode `json:"node,omitempty"`

	// Remediation is the audit log. Empty Actions means the mutation
	// went through untouched.
	Remediation RemediationAttempt `json:"remediation"`
}
